package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saintvisionai/platform-api/internal/entity"
)

//go:embed plans.yaml
var defaultPlans []byte

type planFile struct {
	Version     string         `yaml:"version"`
	DefaultTier string         `yaml:"default_tier"`
	Plans       []planEntry    `yaml:"plans"`
	Quotas      map[string]int `yaml:"quotas"`
}

type planEntry struct {
	PriceID string `yaml:"price_id"`
	Name    string `yaml:"name"`
	Tier    string `yaml:"tier"`
}

// LoadPlanCatalog reads the catalog at path, or the built-in one when path is empty.
func LoadPlanCatalog(path string) (*entity.PlanCatalog, error) {
	data := defaultPlans
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read plan catalog: %w", err)
		}
		data = b
	}
	return ParsePlanCatalog(data)
}

func ParsePlanCatalog(data []byte) (*entity.PlanCatalog, error) {
	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}

	defaultTier, err := entity.ParseTier(f.DefaultTier)
	if err != nil {
		return nil, fmt.Errorf("plan catalog default_tier: %w", err)
	}

	plans := make([]entity.Plan, 0, len(f.Plans))
	for _, p := range f.Plans {
		tier, err := entity.ParseTier(p.Tier)
		if err != nil {
			return nil, fmt.Errorf("plan catalog price %s: %w", p.PriceID, err)
		}
		plans = append(plans, entity.Plan{PriceID: p.PriceID, Name: p.Name, Tier: tier})
	}

	quotas := make(map[entity.Tier]int, len(f.Quotas))
	for name, n := range f.Quotas {
		tier, err := entity.ParseTier(name)
		if err != nil {
			return nil, fmt.Errorf("plan catalog quotas: %w", err)
		}
		quotas[tier] = n
	}

	return entity.NewPlanCatalog(f.Version, defaultTier, plans, quotas)
}
