package domain

import "fmt"

// ModelFamily identifies a conditional-variance model family.
type ModelFamily string

// Supported model families
const (
	FamilyGARCH    ModelFamily = "GARCH"
	FamilyEGARCH   ModelFamily = "EGARCH"
	FamilyGJRGARCH ModelFamily = "GJR-GARCH"
)

// Distribution identifies the innovation distribution assumption.
type Distribution string

// Supported innovation distributions
const (
	DistNormal Distribution = "normal"
)

// Canonical parameter names shared by all families.
const (
	ParamOmega = "omega"
	ParamAlpha = "alpha"
	ParamGamma = "gamma"
	ParamBeta  = "beta"
)

// ModelSpec identifies one model to estimate: family, lag orders and
// innovation distribution.
type ModelSpec struct {
	Family ModelFamily
	P      int // ARCH order (lagged squared-shock terms)
	Q      int // GARCH order (lagged variance terms)
	Dist   Distribution
}

// String renders the conventional label, e.g. "GJR-GARCH(1,1)".
func (s ModelSpec) String() string {
	return fmt.Sprintf("%s(%d,%d)", s.Family, s.P, s.Q)
}

// Key returns a stable identifier usable as a map or storage key,
// e.g. "EGARCH_1_1_normal".
func (s ModelSpec) Key() string {
	return fmt.Sprintf("%s_%d_%d_%s", s.Family, s.P, s.Q, s.Dist)
}

// DefaultSpecs returns the standard comparison set: the three (1,1)
// families under normal innovations, in canonical order.
func DefaultSpecs() []ModelSpec {
	return []ModelSpec{
		{Family: FamilyGARCH, P: 1, Q: 1, Dist: DistNormal},
		{Family: FamilyEGARCH, P: 1, Q: 1, Dist: DistNormal},
		{Family: FamilyGJRGARCH, P: 1, Q: 1, Dist: DistNormal},
	}
}
