package venue

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed venues.yml
var defaultTable []byte

// Load reads the venue table from a YAML file. An empty path loads the
// built-in table.
func Load(path string) (*Table, error) {
	data := defaultTable
	source := "embedded"

	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read venues file: %w", err)
		}
		source = path
	}

	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid venues table %s: %w", source, err)
	}

	slog.Info("Loaded venue table", "source", source, "regions", len(table.Regions))

	return table, nil
}

func Parse(data []byte) (*Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate(&table); err != nil {
		return nil, err
	}

	return &table, nil
}

// validate requires non-empty codes that are unique within their parent
// and at least one keyword per hall.
func validate(table *Table) error {
	if len(table.Regions) == 0 {
		return fmt.Errorf("at least one region is required")
	}

	regions := map[string]bool{}
	for i, region := range table.Regions {
		if region.Code == "" {
			return fmt.Errorf("region at index %d has no code", i)
		}
		if regions[region.Code] {
			return fmt.Errorf("duplicate region code %q", region.Code)
		}
		regions[region.Code] = true

		venues := map[string]bool{}
		for j, v := range region.Venues {
			if v.Code == "" {
				return fmt.Errorf("venue at index %d of region %s has no code", j, region.Code)
			}
			if venues[v.Code] {
				return fmt.Errorf("duplicate venue code %q in region %s", v.Code, region.Code)
			}
			venues[v.Code] = true

			halls := map[string]bool{}
			for k, hall := range v.Halls {
				if hall.Code == "" {
					return fmt.Errorf("hall at index %d of venue %s/%s has no code", k, region.Code, v.Code)
				}
				if halls[hall.Code] {
					return fmt.Errorf("duplicate hall code %q in venue %s/%s", hall.Code, region.Code, v.Code)
				}
				halls[hall.Code] = true

				if len(hall.Keywords) == 0 {
					return fmt.Errorf("hall %s/%s/%s has no keywords", region.Code, v.Code, hall.Code)
				}
				for _, kw := range hall.Keywords {
					if strings.TrimSpace(kw) == "" {
						return fmt.Errorf("hall %s/%s/%s has a blank keyword", region.Code, v.Code, hall.Code)
					}
				}
			}
		}
	}

	return nil
}
