package entity

import (
	"errors"
	"fmt"
	"strings"
)

var ErrPlanNotFound = errors.New("plan not found")

// Tier is the entitlement level granted to an account.
type Tier string

const (
	TierFree       Tier = "free"
	TierUnlimited  Tier = "unlimited"
	TierCRM        Tier = "crm"
	TierEnterprise Tier = "enterprise"
	TierWhiteLabel Tier = "white_label"
)

func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierFree, TierUnlimited, TierCRM, TierEnterprise, TierWhiteLabel:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tier %q", s)
	}
}

type Plan struct {
	PriceID string
	Name    string
	Tier    Tier
}

// PlanCatalog maps billing price ids to tiers and tiers to CRM sub-account quotas.
// It is immutable once built.
type PlanCatalog struct {
	version     string
	defaultTier Tier
	byPrice     map[string]Plan
	quotas      map[Tier]int
}

func NewPlanCatalog(version string, defaultTier Tier, plans []Plan, quotas map[Tier]int) (*PlanCatalog, error) {
	if defaultTier == "" {
		return nil, errors.New("plan catalog: default tier is required")
	}

	byPrice := make(map[string]Plan, len(plans))
	for _, p := range plans {
		id := strings.TrimSpace(p.PriceID)
		if id == "" {
			return nil, fmt.Errorf("plan catalog: plan %q has no price id", p.Name)
		}
		if _, dup := byPrice[id]; dup {
			return nil, fmt.Errorf("plan catalog: duplicate price id %s", id)
		}
		p.PriceID = id
		byPrice[id] = p
	}

	q := make(map[Tier]int, len(quotas))
	for tier, n := range quotas {
		if n < 1 {
			return nil, fmt.Errorf("plan catalog: quota for %s must be at least 1", tier)
		}
		q[tier] = n
	}

	return &PlanCatalog{
		version:     version,
		defaultTier: defaultTier,
		byPrice:     byPrice,
		quotas:      q,
	}, nil
}

func (c *PlanCatalog) Version() string { return c.version }

func (c *PlanCatalog) DefaultTier() Tier { return c.defaultTier }

// TierForPrice resolves a price id; unknown ids fall back to the default tier.
func (c *PlanCatalog) TierForPrice(priceID string) Tier {
	if p, ok := c.byPrice[strings.TrimSpace(priceID)]; ok {
		return p.Tier
	}
	return c.defaultTier
}

func (c *PlanCatalog) FindByPrice(priceID string) (Plan, error) {
	p, ok := c.byPrice[strings.TrimSpace(priceID)]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// AccountLimit returns the CRM sub-account quota of a tier, 0 when the tier has no CRM access.
func (c *PlanCatalog) AccountLimit(t Tier) int {
	return c.quotas[t]
}

func (c *PlanCatalog) IsCRMEligible(t Tier) bool {
	return c.quotas[t] > 0
}
