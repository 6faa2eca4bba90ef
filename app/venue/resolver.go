package venue

import (
	"strings"

	"golang.org/x/text/width"
)

const DefaultTitle = "CFA Calendar"

type Resolver interface {
	Resolve(text string) Match
}

var _ Resolver = (*TreeResolver)(nil)

type entry struct {
	region   *Region
	venue    *Venue
	hall     *Hall
	keywords []string
}

// TreeResolver matches venue text against the reference tree in table
// order. It holds no mutable state and is safe for concurrent use.
type TreeResolver struct {
	table   *Table
	entries []entry // halls flattened in walk order
}

func NewTreeResolver(table *Table) *TreeResolver {
	r := &TreeResolver{table: table}

	for i := range table.Regions {
		region := &table.Regions[i]
		for j := range region.Venues {
			v := &region.Venues[j]
			for k := range v.Halls {
				hall := &v.Halls[k]
				keywords := make([]string, 0, len(hall.Keywords))
				for _, kw := range hall.Keywords {
					keywords = append(keywords, fold(kw))
				}
				r.entries = append(r.entries, entry{region: region, venue: v, hall: hall, keywords: keywords})
			}
		}
	}

	return r
}

func (r *TreeResolver) Table() *Table {
	return r.table
}

// Resolve returns the first hall whose keywords all occur in text.
func (r *TreeResolver) Resolve(text string) Match {
	folded := fold(text)

	for _, e := range r.entries {
		if !containsAll(folded, e.keywords) {
			continue
		}
		return Match{
			RegionCode: e.region.Code,
			VenueCode:  e.venue.Code,
			HallCode:   e.hall.Code,
			Location:   e.region.Name + e.venue.Location + e.hall.Name,
			Geo:        Geo{Lat: e.venue.Lat, Lon: e.venue.Lng},
		}
	}

	return Match{Location: text}
}

// RegionName returns the display name of a region, or "".
func (r *TreeResolver) RegionName(regionCode string) string {
	if region := r.region(regionCode); region != nil {
		return region.Name
	}
	return ""
}

// VenueName looks the venue up within its region.
func (r *TreeResolver) VenueName(regionCode, venueCode string) string {
	if v := r.venue(regionCode, venueCode); v != nil {
		return v.Name
	}
	return ""
}

// HallName looks the hall up within its venue. Hall codes repeat across
// venues, so the parent codes are required.
func (r *TreeResolver) HallName(regionCode, venueCode, hallCode string) string {
	v := r.venue(regionCode, venueCode)
	if v == nil {
		return ""
	}
	for _, hall := range v.Halls {
		if hall.Code == hallCode {
			return hall.Name
		}
	}
	return ""
}

// Title names a feed after the codes it is filtered by. Unknown codes are
// skipped; with nothing left the default title is used.
func (r *TreeResolver) Title(regionCode, venueCode, hallCode string) string {
	var parts []string
	if regionCode != "" {
		parts = append(parts, r.RegionName(regionCode))
	}
	if venueCode != "" {
		parts = append(parts, r.VenueName(regionCode, venueCode))
	}
	if hallCode != "" {
		parts = append(parts, r.HallName(regionCode, venueCode, hallCode))
	}

	names := parts[:0]
	for _, p := range parts {
		if p != "" {
			names = append(names, p)
		}
	}
	if len(names) == 0 {
		return DefaultTitle
	}
	return strings.Join(names, " ")
}

func (r *TreeResolver) region(code string) *Region {
	for i := range r.table.Regions {
		if r.table.Regions[i].Code == code {
			return &r.table.Regions[i]
		}
	}
	return nil
}

func (r *TreeResolver) venue(regionCode, venueCode string) *Venue {
	region := r.region(regionCode)
	if region == nil {
		return nil
	}
	for i := range region.Venues {
		if region.Venues[i].Code == venueCode {
			return &region.Venues[i]
		}
	}
	return nil
}

// containsAll never matches an empty keyword list.
func containsAll(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, kw := range keywords {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}

// fold maps full-width ASCII variants to their narrow forms so "１号厅"
// matches the keyword "1".
func fold(s string) string {
	return width.Fold.String(s)
}
