package risk

import (
	"errors"
	"fmt"
)

// Direction is the required monotonic direction of a response curve.
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
)

// Boundary decides which band a value sitting exactly on a band's From belongs to.
type Boundary string

const (
	// BoundaryAtOrAbove enters a band when x >= From.
	BoundaryAtOrAbove Boundary = "at_or_above"
	// BoundaryAbove enters a band only when x > From.
	BoundaryAbove Boundary = "above"
)

const curveTolerance = 1e-9

// Band is one linear piece: contribution = Offset + Slope*(x - Baseline).
type Band struct {
	From   float64 `mapstructure:"from" yaml:"from" json:"from"`
	Slope  float64 `mapstructure:"slope" yaml:"slope" json:"slope"`
	Offset float64 `mapstructure:"offset" yaml:"offset" json:"offset"`
}

// ResponseCurve maps a feature value to its signed risk contribution.
// Bands are ordered by From; the first band also covers values below its From.
type ResponseCurve struct {
	Baseline  float64   `mapstructure:"baseline" yaml:"baseline" json:"baseline"`
	Direction Direction `mapstructure:"direction" yaml:"direction" json:"direction"`
	Boundary  Boundary  `mapstructure:"boundary" yaml:"boundary" json:"boundary"`
	Bands     []Band    `mapstructure:"bands" yaml:"bands" json:"bands"`
}

// Contribution evaluates the curve at x. Validate must have passed.
func (c ResponseCurve) Contribution(x float64) float64 {
	band := c.Bands[c.bandIndex(x)]
	return band.Offset + band.Slope*(x-c.Baseline)
}

func (c ResponseCurve) bandIndex(x float64) int {
	idx := 0
	for i := 1; i < len(c.Bands); i++ {
		from := c.Bands[i].From
		if x > from || (x == from && c.Boundary != BoundaryAbove) {
			idx = i
			continue
		}
		break
	}
	return idx
}

// Validate rejects empty, unordered or non-monotonic band tables.
func (c ResponseCurve) Validate() error {
	if c.Direction != Increasing && c.Direction != Decreasing {
		return fmt.Errorf("direction %q must be %q or %q", c.Direction, Increasing, Decreasing)
	}
	if c.Boundary != BoundaryAtOrAbove && c.Boundary != BoundaryAbove {
		return fmt.Errorf("boundary %q must be %q or %q", c.Boundary, BoundaryAtOrAbove, BoundaryAbove)
	}
	if len(c.Bands) == 0 {
		return errors.New("at least one band is required")
	}
	if !isFinite(c.Baseline) {
		return errors.New("baseline must be finite")
	}

	var errs []error
	for i, b := range c.Bands {
		if !isFinite(b.From) || !isFinite(b.Slope) || !isFinite(b.Offset) {
			errs = append(errs, fmt.Errorf("band %d: values must be finite", i))
			continue
		}
		if c.Direction == Increasing && b.Slope < 0 {
			errs = append(errs, fmt.Errorf("band %d: slope %g decreases an increasing curve", i, b.Slope))
		}
		if c.Direction == Decreasing && b.Slope > 0 {
			errs = append(errs, fmt.Errorf("band %d: slope %g increases a decreasing curve", i, b.Slope))
		}
		if i == 0 {
			continue
		}
		prev := c.Bands[i-1]
		if b.From <= prev.From {
			errs = append(errs, fmt.Errorf("band %d: from %g overlaps previous band starting at %g", i, b.From, prev.From))
			continue
		}

		// the step taken when crossing this boundary must follow the curve direction
		before := prev.Offset + prev.Slope*(b.From-c.Baseline)
		after := b.Offset + b.Slope*(b.From-c.Baseline)
		if c.Direction == Increasing && after < before-curveTolerance {
			errs = append(errs, fmt.Errorf("band %d: drops from %g to %g at %g", i, before, after, b.From))
		}
		if c.Direction == Decreasing && after > before+curveTolerance {
			errs = append(errs, fmt.Errorf("band %d: jumps from %g to %g at %g", i, before, after, b.From))
		}
	}
	return errors.Join(errs...)
}

// Clone copies the band slice so configurations never share backing arrays.
func (c ResponseCurve) Clone() ResponseCurve {
	out := c
	out.Bands = append([]Band(nil), c.Bands...)
	return out
}
