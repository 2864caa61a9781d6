package sweep

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/cadsweep/cadsweep/pkg/models"
)

var (
	ErrNonPositiveStep = errors.New("step size must be a positive number")
	ErrTooManyValues   = errors.New("range has too many values")
	ErrStepPrecision   = errors.New("step size is below the precision of the range")
)

// Most values a single sweep may have
const MaxValues = 100_000

// Slack, in steps, for ranges whose values are exact in decimal but not in
// binary, e.g. 0 to 0.3 by 0.1.
const tolerance = 1e-9

// Values swept from Start to End, both inclusive
type Range struct {
	Start float64
	End   float64
	Step  float64
}

func RangeOf(v *models.SweepConfig) Range {
	return Range{Start: *v.StartValue, End: *v.EndValue, Step: *v.StepSize}
}

// Values returns Start, Start+Step, ... up to and including End, strictly
// increasing.
//
// The i-th value is computed as Start + i*Step rather than by accumulation.
// A value that differs from its 12 significant digit rounding by less than
// the tolerance is snapped to it, so binary drift neither adds nor drops an
// iteration; any other value is kept as computed.
func (r Range) Values() ([]float64, error) {
	if !(r.Step > 0) || math.IsInf(r.Step, 0) {
		return nil, fmt.Errorf("%w: %v", ErrNonPositiveStep, r.Step)
	}
	if math.IsNaN(r.Start) || math.IsNaN(r.End) {
		return nil, fmt.Errorf("invalid range %v to %v", r.Start, r.End)
	}
	if r.Start > r.End {
		return []float64{}, nil
	}

	span := (r.End - r.Start) / r.Step
	if math.IsNaN(span) || math.IsInf(span, 0) || span+1 > MaxValues {
		return nil, fmt.Errorf("%w: %v to %v by %v, at most %d allowed", ErrTooManyValues, r.Start, r.End, r.Step, MaxValues)
	}

	n := int(math.Floor(span+tolerance)) + 1
	values := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		v := r.Start
		if i > 0 {
			prev := values[i-1]
			v = r.at(i, prev)
			if v <= prev {
				return nil, fmt.Errorf("%w: %v after %v", ErrStepPrecision, r.Step, prev)
			}
		}
		if v > r.End {
			break
		}
		values = append(values, v)
	}
	return values, nil
}

// Value i, snapped to its rounding or to End when only drift separates them
func (r Range) at(i int, prev float64) float64 {
	v := r.Start + float64(i)*r.Step
	slack := tolerance * r.Step
	if rounded := round(v); rounded != v && math.Abs(rounded-v) <= slack && rounded > prev {
		v = rounded
	}
	if v > r.End && v-r.End <= slack && r.End > prev {
		v = r.End
	}
	return v
}

func round(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 12, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

// FormatValue renders v with at most 6 significant digits and without
// trailing zeros: 10 -> "10", 12.5 -> "12.5", 1e6 -> "1e+06".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// Expression written to the variable for v, with the unit appended when set
func Expression(v float64, unit string) string {
	expr := strconv.FormatFloat(v, 'f', -1, 64)
	if unit != "" {
		expr += " " + unit
	}
	return expr
}

// Filename of the export of variable at value v: <variable>_<value>.<ext>
func Filename(variable string, v float64, format models.ExportFormat) string {
	return fmt.Sprintf("%s_%s.%s", variable, FormatValue(v), format.Extension())
}
