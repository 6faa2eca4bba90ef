package venue

// Table is the region -> venue -> hall reference tree. Order matters:
// resolution walks it top to bottom and the first matching hall wins.
type Table struct {
	Regions []Region `yaml:"regions" json:"regions"`
}

type Region struct {
	Code   string  `yaml:"code" json:"code"`
	Name   string  `yaml:"name" json:"name"`
	Venues []Venue `yaml:"venues" json:"venues"`
}

type Venue struct {
	Code     string  `yaml:"code" json:"code"`
	Name     string  `yaml:"name" json:"name"`
	Location string  `yaml:"location" json:"location"`
	Lat      float64 `yaml:"lat" json:"lat"`
	Lng      float64 `yaml:"lng" json:"lng"`
	Halls    []Hall  `yaml:"halls" json:"halls"`
}

type Hall struct {
	Code     string   `yaml:"code" json:"code"`
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Match is the outcome of resolving a free-text venue description. A miss
// has empty codes, zero geo and the input text as Location.
type Match struct {
	RegionCode string `json:"region_code"`
	VenueCode  string `json:"venue_code"`
	HallCode   string `json:"hall_code"`
	Location   string `json:"location"`
	Geo        Geo    `json:"geo"`
}

func (m Match) Found() bool {
	return m.HallCode != ""
}
