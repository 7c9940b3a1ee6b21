package growth

import (
	"errors"
	"fmt"
	"math"
)

// Form limits for a measurement.
const (
	MaxWeightKg = 50.0
	MaxHeightCm = 150.0
)

// ErrInvalidMeasurement marks input rejected before classification.
var ErrInvalidMeasurement = errors.New("growth: invalid measurement")

// Measurement is a single child's input record.
type Measurement struct {
	AgeMonths int     `json:"age_months"`
	WeightKg  float64 `json:"weight_kg"`
	HeightCm  float64 `json:"height_cm"`
}

// Validate enforces the form ranges. Classifiers assume a validated measurement.
func (m Measurement) Validate() error {
	if m.AgeMonths < MinAgeMonths || m.AgeMonths > MaxAgeMonths {
		return fmt.Errorf("%w: age_months must be between %d and %d", ErrInvalidMeasurement, MinAgeMonths, MaxAgeMonths)
	}
	if !finite(m.WeightKg) || m.WeightKg <= 0 || m.WeightKg > MaxWeightKg {
		return fmt.Errorf("%w: weight_kg must be above 0 and at most %.0f", ErrInvalidMeasurement, MaxWeightKg)
	}
	if !finite(m.HeightCm) || m.HeightCm <= 0 || m.HeightCm > MaxHeightCm {
		return fmt.Errorf("%w: height_cm must be above 0 and at most %.0f", ErrInvalidMeasurement, MaxHeightCm)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
