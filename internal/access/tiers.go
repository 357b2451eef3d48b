package access

import "fmt"

type Role string

const (
	RoleTrucker Role = "trucker"
	RoleBroker  Role = "broker"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleTrucker, RoleBroker:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Tier string

const (
	TierStarter      Tier = "starter"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierStarter, TierProfessional, TierEnterprise:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

type Feature string

const (
	FeatureLoadPostsPerMonth Feature = "load_posts_per_month"
	FeatureActiveLoads       Feature = "active_loads"
	FeatureBidsPerMonth      Feature = "bids_per_month"
	FeatureActiveBids        Feature = "active_bids"
)

type valueKind int

const (
	kindBool valueKind = iota
	kindLimit
	kindUnlimited
)

// FeatureValue is one tier-table entry: a plain switch, a monthly numeric
// limit, or unlimited.
type FeatureValue struct {
	kind  valueKind
	allow bool
	limit int
}

func Allow(v bool) FeatureValue { return FeatureValue{kind: kindBool, allow: v} }
func Limit(n int) FeatureValue  { return FeatureValue{kind: kindLimit, limit: n} }
func Unlimited() FeatureValue   { return FeatureValue{kind: kindUnlimited} }

// TierConfig maps role and tier to that combination's feature table. It is
// a plain value; construct it once and hand it to NewGate.
type TierConfig map[Role]map[Tier]map[Feature]FeatureValue

// FeatureLimit resolves one entry. Unknown role, tier, or feature is an
// explicit error, never a silent fall-through.
func (c TierConfig) FeatureLimit(role Role, tier Tier, feature Feature) (FeatureValue, error) {
	tiers, ok := c[role]
	if !ok {
		return FeatureValue{}, fmt.Errorf("no tier table for role %q", role)
	}
	features, ok := tiers[tier]
	if !ok {
		return FeatureValue{}, fmt.Errorf("no feature table for role %q tier %q", role, tier)
	}
	val, ok := features[feature]
	if !ok {
		return FeatureValue{}, fmt.Errorf("feature %q not defined for role %q tier %q", feature, role, tier)
	}
	return val, nil
}

// DefaultTiers is the production tier table.
func DefaultTiers() TierConfig {
	return TierConfig{
		RoleBroker: {
			TierStarter: {
				FeatureLoadPostsPerMonth: Limit(3),
				FeatureActiveLoads:       Limit(2),
			},
			TierProfessional: {
				FeatureLoadPostsPerMonth: Limit(25),
				FeatureActiveLoads:       Limit(10),
			},
			TierEnterprise: {
				FeatureLoadPostsPerMonth: Unlimited(),
				FeatureActiveLoads:       Unlimited(),
			},
		},
		RoleTrucker: {
			TierStarter: {
				FeatureBidsPerMonth: Limit(10),
				FeatureActiveBids:   Limit(2),
				FeatureActiveLoads:  Limit(2),
			},
			TierProfessional: {
				FeatureBidsPerMonth: Limit(50),
				FeatureActiveBids:   Limit(10),
				FeatureActiveLoads:  Limit(10),
			},
			TierEnterprise: {
				FeatureBidsPerMonth: Unlimited(),
				FeatureActiveBids:   Unlimited(),
				FeatureActiveLoads:  Unlimited(),
			},
		},
	}
}
