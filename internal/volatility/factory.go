package volatility

import (
	"errors"
	"fmt"

	"crypto-volatility-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownFamily           = errors.New("unknown model family")
	ErrUnsupportedOrder        = errors.New("only (1,1) lag orders are supported")
	ErrUnsupportedDistribution = errors.New("only normal innovations are supported")
)

// FromSpec creates the Model for a spec. Validates family, lag orders
// and distribution, returning a clear error for each rejection.
func FromSpec(spec domain.ModelSpec) (Model, error) {
	if spec.P != 1 || spec.Q != 1 {
		return nil, fmt.Errorf("%s: %w", spec, ErrUnsupportedOrder)
	}
	if spec.Dist != domain.DistNormal {
		return nil, fmt.Errorf("%s dist %q: %w", spec.Family, spec.Dist, ErrUnsupportedDistribution)
	}

	switch spec.Family {
	case domain.FamilyGARCH:
		return NewGARCH(spec.Dist), nil
	case domain.FamilyEGARCH:
		return NewEGARCH(spec.Dist), nil
	case domain.FamilyGJRGARCH:
		return NewGJRGARCH(spec.Dist), nil
	default:
		return nil, fmt.Errorf("%q: %w", spec.Family, ErrUnknownFamily)
	}
}
