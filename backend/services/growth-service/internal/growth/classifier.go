package growth

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Status is the classification outcome.
type Status string

const (
	StatusChronicRisk  Status = "chronic_malnutrition_risk"
	StatusAboveAverage Status = "above_average"
	StatusNormal       Status = "normal"
	StatusOutOfRange   Status = "out_of_range"
)

// StrategyName selects a classification method.
type StrategyName string

const (
	StrategyBanded StrategyName = "banded"
	StrategyLinear StrategyName = "linear"
	StrategyZScore StrategyName = "zscore"
	StrategyBMI    StrategyName = "bmi"
)

// Thresholds used by the strategies. Comparisons against them are strict: a value on the
// threshold is normal.
const (
	zScoreThreshold      = -2.0
	linearThresholdRatio = 0.9
	bmiThreshold         = 14.0

	// boundaryTolerance absorbs float error in derived values such as (h-median)/sd, so a
	// height typed exactly on a boundary does not land a few ulps below it.
	boundaryTolerance = 1e-9
)

// lessThan reports v < limit by more than boundaryTolerance.
func lessThan(v, limit float64) bool {
	return v < limit-boundaryTolerance
}

// greaterThan reports v > limit by more than boundaryTolerance.
func greaterThan(v, limit float64) bool {
	return v > limit+boundaryTolerance
}

// ErrNoReferenceData is matched by every NoReferenceDataError.
var ErrNoReferenceData = errors.New("growth: no reference data")

// NoReferenceDataError reports an age without an exact reference row.
type NoReferenceDataError struct {
	Strategy  StrategyName
	AgeMonths int
}

func (e *NoReferenceDataError) Error() string {
	return fmt.Sprintf("growth: %s strategy has no reference data for age %d months", e.Strategy, e.AgeMonths)
}

// Is lets errors.Is(err, ErrNoReferenceData) match.
func (e *NoReferenceDataError) Is(target error) bool { return target == ErrNoReferenceData }

// Result is what a strategy concluded and the numbers it used.
type Result struct {
	Strategy       StrategyName    `json:"strategy"`
	Status         Status          `json:"status"`
	ZScore         *float64        `json:"z_score,omitempty"`
	Percentile     *float64        `json:"percentile,omitempty"`
	ExpectedHeight *float64        `json:"expected_height,omitempty"`
	BMI            *float64        `json:"bmi,omitempty"`
	Reference      *ReferencePoint `json:"reference,omitempty"`
}

// Strategy is one classification method together with the table it charts against.
type Strategy interface {
	Name() StrategyName
	Classify(m Measurement) (Result, error)
	Reference() *ReferenceTable
}

// NewStrategy builds the named strategy. override replaces the built-in table of the
// matching kind: banded tables for banded, zscore tables for zscore and bmi charts. nil
// keeps the built-in tables.
func NewStrategy(name StrategyName, override *ReferenceTable) (Strategy, error) {
	switch StrategyName(strings.ToLower(strings.TrimSpace(string(name)))) {
	case StrategyBanded:
		table := BandedReferenceTable()
		if override != nil {
			if override.Kind() != KindBanded {
				return nil, fmt.Errorf("growth: banded strategy needs a banded reference table, got %s", override.Kind())
			}
			table = override
		}
		return NewBandedStrategy(table), nil
	case StrategyLinear:
		if override != nil {
			return nil, errors.New("growth: linear strategy does not use a reference table")
		}
		return NewLinearStrategy(), nil
	case StrategyZScore, "":
		if override == nil {
			override = ZScoreReferenceTable()
		}
		return NewZScoreStrategy(override)
	case StrategyBMI:
		table := ZScoreReferenceTable()
		if override != nil {
			table = override
		}
		return NewBMIStrategy(table), nil
	default:
		return nil, fmt.Errorf("growth: unknown strategy %q", name)
	}
}

// BandedStrategy compares height with the band at the exact age.
type BandedStrategy struct {
	table *ReferenceTable
}

// NewBandedStrategy returns a banded strategy over table.
func NewBandedStrategy(table *ReferenceTable) *BandedStrategy {
	return &BandedStrategy{table: table}
}

func (s *BandedStrategy) Name() StrategyName         { return StrategyBanded }
func (s *BandedStrategy) Reference() *ReferenceTable { return s.table }

// Classify returns out_of_range with a NoReferenceDataError when the age has no band.
func (s *BandedStrategy) Classify(m Measurement) (Result, error) {
	point, ok := s.table.Lookup(m.AgeMonths)
	if !ok {
		return Result{Strategy: StrategyBanded, Status: StatusOutOfRange},
			&NoReferenceDataError{Strategy: StrategyBanded, AgeMonths: m.AgeMonths}
	}
	lower, _, upper := s.table.Band(point)

	status := StatusNormal
	switch {
	case lessThan(m.HeightCm, lower):
		status = StatusChronicRisk
	case greaterThan(m.HeightCm, upper):
		status = StatusAboveAverage
	}
	return Result{Strategy: StrategyBanded, Status: status, Reference: &point}, nil
}

// ExpectedHeight is the piecewise linear expected height in cm: 2.5 cm/month from 49.9
// up to 24 months, then 0.7 cm/month from 90.
func ExpectedHeight(ageMonths int) float64 {
	if ageMonths <= 24 {
		return 49.9 + float64(ageMonths)*2.5
	}
	return 90 + float64(ageMonths-24)*0.7
}

// LinearThreshold is the height below which the linear strategy flags risk.
func LinearThreshold(ageMonths int) float64 {
	return linearThresholdRatio * ExpectedHeight(ageMonths)
}

// LinearStrategy flags heights under 90% of ExpectedHeight.
type LinearStrategy struct {
	table *ReferenceTable
}

// NewLinearStrategy returns the linear threshold strategy.
func NewLinearStrategy() *LinearStrategy {
	return &LinearStrategy{table: LinearReferenceTable()}
}

func (s *LinearStrategy) Name() StrategyName         { return StrategyLinear }
func (s *LinearStrategy) Reference() *ReferenceTable { return s.table }

func (s *LinearStrategy) Classify(m Measurement) (Result, error) {
	expected := ExpectedHeight(m.AgeMonths)
	status := StatusNormal
	if lessThan(m.HeightCm, LinearThreshold(m.AgeMonths)) {
		status = StatusChronicRisk
	}
	return Result{Strategy: StrategyLinear, Status: status, ExpectedHeight: &expected}, nil
}

// ZScoreStrategy standardises height against the median/SD row for the exact age.
type ZScoreStrategy struct {
	table *ReferenceTable
}

// NewZScoreStrategy requires a zscore-kind table.
func NewZScoreStrategy(table *ReferenceTable) (*ZScoreStrategy, error) {
	if table == nil || table.Kind() != KindZScore {
		return nil, errors.New("growth: zscore strategy needs a zscore reference table")
	}
	return &ZScoreStrategy{table: table}, nil
}

func (s *ZScoreStrategy) Name() StrategyName         { return StrategyZScore }
func (s *ZScoreStrategy) Reference() *ReferenceTable { return s.table }

func (s *ZScoreStrategy) Classify(m Measurement) (Result, error) {
	point, ok := s.table.Lookup(m.AgeMonths)
	if !ok {
		return Result{Strategy: StrategyZScore, Status: StatusOutOfRange},
			&NoReferenceDataError{Strategy: StrategyZScore, AgeMonths: m.AgeMonths}
	}

	z := ZScore(m.HeightCm, point)
	percentile := distuv.UnitNormal.CDF(z) * 100
	status := StatusNormal
	if lessThan(z, zScoreThreshold) {
		status = StatusChronicRisk
	}
	return Result{
		Strategy:   StrategyZScore,
		Status:     status,
		ZScore:     &z,
		Percentile: &percentile,
		Reference:  &point,
	}, nil
}

// ZScore is (height - median) / std_dev for a zscore row.
func ZScore(heightCm float64, p ReferencePoint) float64 {
	return (heightCm - p.MedianHeight) / p.StdDev
}

// BMIStrategy is the weight-based proxy: BMI under 14 counts as malnutrition. It does not
// look at height-for-age; its table is only used for charting.
type BMIStrategy struct {
	chartTable *ReferenceTable
}

// NewBMIStrategy returns the BMI proxy, charting against chartTable.
func NewBMIStrategy(chartTable *ReferenceTable) *BMIStrategy {
	return &BMIStrategy{chartTable: chartTable}
}

func (s *BMIStrategy) Name() StrategyName         { return StrategyBMI }
func (s *BMIStrategy) Reference() *ReferenceTable { return s.chartTable }

func (s *BMIStrategy) Classify(m Measurement) (Result, error) {
	bmi := BMI(m.WeightKg, m.HeightCm)
	status := StatusNormal
	if lessThan(bmi, bmiThreshold) {
		status = StatusChronicRisk
	}
	return Result{Strategy: StrategyBMI, Status: status, BMI: &bmi}, nil
}

// BMI is weight / height² with height converted to metres.
func BMI(weightKg, heightCm float64) float64 {
	heightM := heightCm / 100
	return weightKg / (heightM * heightM)
}

// Label is the Spanish wording shown to families and sent in prompts.
func (s Status) Label() string {
	switch s {
	case StatusChronicRisk:
		return "Riesgo de Desnutrición Crónica"
	case StatusAboveAverage:
		return "Crecimiento superior al promedio"
	case StatusNormal:
		return "Normal"
	case StatusOutOfRange:
		return "Fuera del rango de edad analizado"
	default:
		return string(s)
	}
}

// Severity maps a status to the page's visual cue: error, warning or success.
func (s Status) Severity() string {
	switch s {
	case StatusChronicRisk:
		return "error"
	case StatusNormal:
		return "success"
	default:
		return "warning"
	}
}
