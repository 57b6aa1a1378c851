// Package tariff resolves tariff codes to immutable tariff snapshots.
package tariff

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/platform/sentinel"
)

// Defaults are the bonus percentages applied when a tariff omits them.
type Defaults struct {
	ReferralBonusPercent  int
	PlacementBonusPercent int
}

// Catalog is a read-mostly, config-backed tariff catalog.
type Catalog struct {
	mu      sync.RWMutex
	tariffs map[id.TariffCode]models.Tariff
}

// fileEntry is the YAML shape of one tariff. Percentages and the active flag
// are optional.
type fileEntry struct {
	Code                  string `yaml:"code"`
	Name                  string `yaml:"name"`
	EntryAmount           string `yaml:"entry_amount"`
	ReferralBonusPercent  *int   `yaml:"referral_bonus_percent"`
	PlacementBonusPercent *int   `yaml:"placement_bonus_percent"`
	Active                *bool  `yaml:"active"`
}

type fileDoc struct {
	Tariffs []fileEntry `yaml:"tariffs"`
}

var builtin = []struct {
	code   string
	name   string
	amount string
}{
	{"tariff_20", "Tariff $20", "20.00"},
	{"tariff_50", "Tariff $50", "50.00"},
	{"tariff_100", "Tariff $100", "100.00"},
	{"tariff_500", "Tariff $500", "500.00"},
	{"tariff_1000", "Tariff $1000", "1000.00"},
}

// NewBuiltin returns the standard five-tier catalog with default percentages.
func NewBuiltin(d Defaults) *Catalog {
	tariffs := make([]models.Tariff, 0, len(builtin))
	for _, b := range builtin {
		tariffs = append(tariffs, models.Tariff{
			Code:                  id.TariffCode(b.code),
			Name:                  b.name,
			EntryAmount:           decimal.RequireFromString(b.amount),
			ReferralBonusPercent:  d.ReferralBonusPercent,
			PlacementBonusPercent: d.PlacementBonusPercent,
			Active:                true,
		})
	}
	c, err := New(tariffs)
	if err != nil {
		panic(fmt.Sprintf("builtin tariff catalog: %v", err))
	}
	return c
}

// New builds a catalog from explicit tariffs. Codes must be unique and each
// tariff must validate.
func New(tariffs []models.Tariff) (*Catalog, error) {
	c := &Catalog{tariffs: make(map[id.TariffCode]models.Tariff, len(tariffs))}
	for _, t := range tariffs {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.tariffs[t.Code]; dup {
			return nil, fmt.Errorf("duplicate tariff code %q", t.Code)
		}
		c.tariffs[t.Code] = t
	}
	return c, nil
}

// LoadFile reads a YAML catalog. An empty path yields the builtin catalog.
func LoadFile(path string, d Defaults) (*Catalog, error) {
	if path == "" {
		return NewBuiltin(d), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tariff file: %w", err)
	}
	return Parse(raw, d)
}

// Parse decodes a YAML catalog document.
func Parse(raw []byte, d Defaults) (*Catalog, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode tariff file: %w", err)
	}
	if len(doc.Tariffs) == 0 {
		return nil, fmt.Errorf("tariff file defines no tariffs")
	}
	tariffs := make([]models.Tariff, 0, len(doc.Tariffs))
	for _, e := range doc.Tariffs {
		code, err := id.ParseTariffCode(e.Code)
		if err != nil {
			return nil, fmt.Errorf("tariff %q: %w", e.Code, err)
		}
		amount, err := decimal.NewFromString(e.EntryAmount)
		if err != nil {
			return nil, fmt.Errorf("tariff %q: entry_amount: %w", e.Code, err)
		}
		t := models.Tariff{
			Code:                  code,
			Name:                  e.Name,
			EntryAmount:           amount,
			ReferralBonusPercent:  d.ReferralBonusPercent,
			PlacementBonusPercent: d.PlacementBonusPercent,
			Active:                true,
		}
		if e.ReferralBonusPercent != nil {
			t.ReferralBonusPercent = *e.ReferralBonusPercent
		}
		if e.PlacementBonusPercent != nil {
			t.PlacementBonusPercent = *e.PlacementBonusPercent
		}
		if e.Active != nil {
			t.Active = *e.Active
		}
		if t.Name == "" {
			t.Name = string(code)
		}
		tariffs = append(tariffs, t)
	}
	return New(tariffs)
}

// Resolve returns a snapshot of the tariff for code, active or not.
// Returns sentinel.ErrNotFound for unknown codes.
func (c *Catalog) Resolve(_ context.Context, code id.TariffCode) (*models.Tariff, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tariffs[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	snapshot := t
	return &snapshot, nil
}

// ListActive returns active tariffs ordered by entry amount.
func (c *Catalog) ListActive(_ context.Context) []*models.Tariff {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Tariff, 0, len(c.tariffs))
	for _, t := range c.tariffs {
		if !t.Active {
			continue
		}
		snapshot := t
		out = append(out, &snapshot)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].EntryAmount.Cmp(out[j].EntryAmount); cmp != 0 {
			return cmp < 0
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Replace swaps the catalog contents atomically (config reload).
func (c *Catalog) Replace(other *Catalog) {
	other.mu.RLock()
	next := make(map[id.TariffCode]models.Tariff, len(other.tariffs))
	for k, v := range other.tariffs {
		next[k] = v
	}
	other.mu.RUnlock()

	c.mu.Lock()
	c.tariffs = next
	c.mu.Unlock()
}
