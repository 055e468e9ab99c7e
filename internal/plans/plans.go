// internal/plans/plans.go
package plans

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan is one pricing tier. Amount is in minor currency units, matching the
// gateway wire format; templates divide by 100 for display.
type Plan struct {
	Code     string   `yaml:"code"`
	Name     string   `yaml:"name"`
	Amount   int64    `yaml:"amount"`
	Currency string   `yaml:"currency"`
	Interval string   `yaml:"interval"`
	Features []string `yaml:"features"`
}

// Catalog is the plan list loaded at startup. Read-only after Load, so it is
// safe to share across handlers.
type Catalog struct {
	plans  []Plan
	byCode map[string]Plan
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

func Load(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening plan catalog '%s': %w", path, err)
	}
	defer file.Close()

	var cf catalogFile
	if err := yaml.NewDecoder(file).Decode(&cf); err != nil {
		return nil, fmt.Errorf("decoding plan catalog '%s': %w", path, err)
	}
	if len(cf.Plans) == 0 {
		return nil, fmt.Errorf("plan catalog '%s' contains no plans", path)
	}

	byCode := make(map[string]Plan, len(cf.Plans))
	for _, p := range cf.Plans {
		if p.Code == "" {
			return nil, fmt.Errorf("plan catalog '%s': plan without code", path)
		}
		if p.Amount <= 0 {
			return nil, fmt.Errorf("plan catalog '%s': plan '%s' has non-positive amount", path, p.Code)
		}
		if _, dup := byCode[p.Code]; dup {
			return nil, fmt.Errorf("plan catalog '%s': duplicate plan code '%s'", path, p.Code)
		}
		byCode[p.Code] = p
	}

	return &Catalog{plans: cf.Plans, byCode: byCode}, nil
}

// Plans returns tiers in catalog order for the pricing page.
func (c *Catalog) Plans() []Plan {
	return c.plans
}

func (c *Catalog) ByCode(code string) (Plan, bool) {
	p, ok := c.byCode[code]
	return p, ok
}
