package venue

import (
	"os"
	"path/filepath"
	"testing"
)

func newDefaultResolver(t *testing.T) *TreeResolver {
	t.Helper()

	table, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load embedded table: %v", err)
	}
	return NewTreeResolver(table)
}

func TestResolveKnownHall(t *testing.T) {
	r := newDefaultResolver(t)

	match := r.Resolve("小西天艺术影院 2号厅")
	if match.RegionCode != "beijing" || match.VenueCode != "xiaoxitian" || match.HallCode != "2" {
		t.Errorf("Unexpected match: %+v", match)
	}
	if match.Location != "北京市海淀区文慧园路 3 号小西天艺术影院2号厅" {
		t.Errorf("Unexpected location: %s", match.Location)
	}
	if match.Geo.Lat != 39.952908 || match.Geo.Lon != 116.369569 {
		t.Errorf("Unexpected geo: %+v", match.Geo)
	}

	match = r.Resolve("中国电影资料馆江南分馆 3号厅")
	if match.RegionCode != "suzhou" || match.VenueCode != "jiangnan" || match.HallCode != "3" {
		t.Errorf("Unexpected match: %+v", match)
	}
}

func TestResolveFullWidthDigits(t *testing.T) {
	r := newDefaultResolver(t)

	match := r.Resolve("百子湾艺术影院 １号厅")
	if match.VenueCode != "baiziwan" || match.HallCode != "1" {
		t.Errorf("Expected full-width digit to match hall 1, got %+v", match)
	}
}

func TestResolveMiss(t *testing.T) {
	r := newDefaultResolver(t)

	text := "上海影城 5号厅"
	match := r.Resolve(text)
	if match.Found() {
		t.Errorf("Expected miss, got %+v", match)
	}
	if match.RegionCode != "" || match.VenueCode != "" || match.HallCode != "" {
		t.Errorf("Expected empty codes, got %+v", match)
	}
	if match.Location != text {
		t.Errorf("Expected original text as location, got %s", match.Location)
	}
	if match.Geo != (Geo{}) {
		t.Errorf("Expected zero geo, got %+v", match.Geo)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	table := &Table{Regions: []Region{
		{Code: "r", Name: "R", Venues: []Venue{
			{Code: "v", Halls: []Hall{
				{Code: "broad", Name: "Broad", Keywords: []string{"Cinema"}},
				{Code: "specific", Name: "Specific", Keywords: []string{"Cinema", "Hall 2"}},
			}},
		}},
	}}
	r := NewTreeResolver(table)

	match := r.Resolve("Cinema Hall 2")
	if match.HallCode != "broad" {
		t.Errorf("Expected earlier hall to win, got %s", match.HallCode)
	}
}

func TestResolveEmptyKeywordsNeverMatch(t *testing.T) {
	table := &Table{Regions: []Region{
		{Code: "r", Venues: []Venue{
			{Code: "v", Halls: []Hall{{Code: "empty"}}},
		}},
	}}
	r := NewTreeResolver(table)

	if match := r.Resolve("anything"); match.Found() {
		t.Errorf("Expected hall without keywords not to match, got %+v", match)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := newDefaultResolver(t)

	first := r.Resolve("小西天艺术影院 1号厅")
	for i := 0; i < 10; i++ {
		if got := r.Resolve("小西天艺术影院 1号厅"); got != first {
			t.Fatalf("Expected identical result on call %d, got %+v", i, got)
		}
	}
}

func TestTitle(t *testing.T) {
	r := newDefaultResolver(t)

	cases := []struct {
		region, venue, hall string
		want                string
	}{
		{"", "", "", DefaultTitle},
		{"beijing", "", "", "北京市"},
		{"beijing", "baiziwan", "", "北京市 百子湾"},
		{"suzhou", "jiangnan", "4", "苏州市 江南分馆 4 号厅"},
		{"nowhere", "", "", DefaultTitle},
	}

	for _, tc := range cases {
		if got := r.Title(tc.region, tc.venue, tc.hall); got != tc.want {
			t.Errorf("Title(%q, %q, %q) = %q, want %q", tc.region, tc.venue, tc.hall, got, tc.want)
		}
	}

	if name := r.HallName("beijing", "baiziwan", "2"); name != "" {
		t.Errorf("Expected no hall 2 at baiziwan, got %s", name)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "venues.yml")

	content := `
regions:
  - code: shanghai
    name: 上海市
    venues:
      - code: art
        name: Art
        location: Somewhere
        halls:
          - code: "1"
            name: Hall 1
            keywords: [Art, "1"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write venues file: %v", err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(table.Regions) != 1 || table.Regions[0].Venues[0].Halls[0].Keywords[1] != "1" {
		t.Errorf("Unexpected table: %+v", table)
	}
}

func TestParseRejectsDuplicateCodes(t *testing.T) {
	content := `
regions:
  - code: a
    venues:
      - code: v
        halls:
          - code: "1"
            keywords: [x]
          - code: "1"
            keywords: [y]
`
	if _, err := Parse([]byte(content)); err == nil {
		t.Error("Expected duplicate hall code to be rejected")
	}

	if _, err := Parse([]byte("regions: []")); err == nil {
		t.Error("Expected empty table to be rejected")
	}

	if _, err := Parse([]byte("regions:\n  - name: nameless\n")); err == nil {
		t.Error("Expected region without code to be rejected")
	}
}

func TestParseRejectsHallWithoutKeywords(t *testing.T) {
	content := `
regions:
  - code: a
    venues:
      - code: v
        halls:
          - code: "1"
`
	if _, err := Parse([]byte(content)); err == nil {
		t.Error("Expected hall without keywords to be rejected")
	}

	blank := `
regions:
  - code: a
    venues:
      - code: v
        halls:
          - code: "1"
            keywords: ["  "]
`
	if _, err := Parse([]byte(blank)); err == nil {
		t.Error("Expected blank keyword to be rejected")
	}
}
