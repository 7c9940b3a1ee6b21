// Package growth classifies a child's height-for-age (and a separate BMI proxy) against
// simplified reference curves and derives the series used to chart the comparison.
package growth

import (
	"fmt"
	"sort"
)

// Age domain covered by every reference table.
const (
	MinAgeMonths = 0
	MaxAgeMonths = 60
)

// TableKind tells how a ReferenceTable's rows describe the normal range.
type TableKind string

const (
	// KindBanded rows carry an explicit [height_min, height_max] band.
	KindBanded TableKind = "banded"
	// KindZScore rows carry a median and standard deviation.
	KindZScore TableKind = "zscore"
)

// ChartBasis names what a table's band means, for chart legends.
type ChartBasis string

const (
	// BasisZScore bands are median ± 2 SD.
	BasisZScore ChartBasis = "zscore"
	// BasisBanded bands are explicit minimum and maximum heights.
	BasisBanded ChartBasis = "banded"
	// BasisLinear bands are 90% and 110% of the linear expected height.
	BasisLinear ChartBasis = "linear"
)

// ReferencePoint is one row of a growth reference table.
type ReferencePoint struct {
	AgeMonths    int     `yaml:"age_months" json:"age_months"`
	HeightMin    float64 `yaml:"height_min,omitempty" json:"height_min,omitempty"`
	HeightMax    float64 `yaml:"height_max,omitempty" json:"height_max,omitempty"`
	MedianHeight float64 `yaml:"median_height,omitempty" json:"median_height,omitempty"`
	StdDev       float64 `yaml:"std_dev,omitempty" json:"std_dev,omitempty"`
}

// ReferenceTable is an immutable, age-ordered set of reference rows.
type ReferenceTable struct {
	kind   TableKind
	basis  ChartBasis
	points []ReferencePoint
	byAge  map[int]int
}

// NewReferenceTable validates points and returns them as a table sorted by age.
func NewReferenceTable(kind TableKind, points []ReferencePoint) (*ReferenceTable, error) {
	if kind != KindBanded && kind != KindZScore {
		return nil, fmt.Errorf("growth: unknown table kind %q", kind)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("growth: %s table is empty", kind)
	}

	sorted := make([]ReferencePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AgeMonths < sorted[j].AgeMonths })

	byAge := make(map[int]int, len(sorted))
	for i, p := range sorted {
		if p.AgeMonths < MinAgeMonths || p.AgeMonths > MaxAgeMonths {
			return nil, fmt.Errorf("growth: age %d outside %d-%d", p.AgeMonths, MinAgeMonths, MaxAgeMonths)
		}
		if _, dup := byAge[p.AgeMonths]; dup {
			return nil, fmt.Errorf("growth: duplicate reference row for age %d", p.AgeMonths)
		}
		switch kind {
		case KindBanded:
			if !(p.HeightMin < p.HeightMax) {
				return nil, fmt.Errorf("growth: age %d: height_min %.2f must be below height_max %.2f", p.AgeMonths, p.HeightMin, p.HeightMax)
			}
		case KindZScore:
			if !(p.StdDev > 0) {
				return nil, fmt.Errorf("growth: age %d: std_dev must be positive", p.AgeMonths)
			}
			if !(p.MedianHeight > 0) {
				return nil, fmt.Errorf("growth: age %d: median_height must be positive", p.AgeMonths)
			}
		}
		byAge[p.AgeMonths] = i
	}

	return &ReferenceTable{kind: kind, basis: ChartBasis(kind), points: sorted, byAge: byAge}, nil
}

// Kind reports the table model.
func (t *ReferenceTable) Kind() TableKind { return t.kind }

// Basis tells how the table's band should be described on a chart.
func (t *ReferenceTable) Basis() ChartBasis { return t.basis }

// Len is the number of rows.
func (t *ReferenceTable) Len() int { return len(t.points) }

// Points returns a copy of the rows in age order.
func (t *ReferenceTable) Points() []ReferencePoint {
	out := make([]ReferencePoint, len(t.points))
	copy(out, t.points)
	return out
}

// Lookup returns the row for the exact age. There is no interpolation between rows.
func (t *ReferenceTable) Lookup(ageMonths int) (ReferencePoint, bool) {
	i, ok := t.byAge[ageMonths]
	if !ok {
		return ReferencePoint{}, false
	}
	return t.points[i], true
}

// Band returns the (lower, central, upper) heights of p under the table's model.
// Z-score rows span median ± 2 standard deviations.
func (t *ReferenceTable) Band(p ReferencePoint) (lower, central, upper float64) {
	if t.kind == KindZScore {
		return p.MedianHeight - 2*p.StdDev, p.MedianHeight, p.MedianHeight + 2*p.StdDev
	}
	return p.HeightMin, (p.HeightMin + p.HeightMax) / 2, p.HeightMax
}

// BandedReferenceTable is the coarse yearly table: one band per completed year, 1 to 5.
func BandedReferenceTable() *ReferenceTable {
	return mustTable(KindBanded, []ReferencePoint{
		{AgeMonths: 12, HeightMin: 70, HeightMax: 78},
		{AgeMonths: 24, HeightMin: 80, HeightMax: 88},
		{AgeMonths: 36, HeightMin: 88, HeightMax: 96},
		{AgeMonths: 48, HeightMin: 95, HeightMax: 103},
		{AgeMonths: 60, HeightMin: 100, HeightMax: 110},
	})
}

// WHO-style height-for-age medians, months 0 to 60.
var zScoreMedians = [...]float64{
	49.9, 54.7, 58.4, 61.4, 63.9, 66.0, 67.8, 69.2, 70.6, 71.9,
	73.1, 74.5, 75.7, 76.9, 78.0, 79.1, 80.1, 81.1, 82.0, 82.9,
	83.8, 84.7, 85.5, 86.4, 87.2, 88.0, 88.8, 89.5, 90.3, 91.0,
	91.7, 92.4, 93.0, 93.7, 94.3, 94.9, 95.5, 96.1, 96.7, 97.2,
	97.8, 98.4, 98.9, 99.5, 100.0, 100.6, 101.1, 101.7, 102.2, 102.8,
	103.3, 103.8, 104.3, 104.8, 105.3, 105.8, 106.3, 106.8, 107.3, 107.8,
	108.3,
}

// Standard deviations for the medians above. From month 10 on they are a flat 2.7, which
// is illustrative only; see GROWTH_REFERENCE_FILE for loading authentic data.
var zScoreStdDevs = [...]float64{
	1.8, 2.1, 2.3, 2.4, 2.5, 2.5, 2.6, 2.6, 2.6, 2.6,
	2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7,
	2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7,
	2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7,
	2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7,
	2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 2.7,
	2.7,
}

// ZScoreReferenceTable is the monthly median/SD table for ages 0 to 60.
func ZScoreReferenceTable() *ReferenceTable {
	points := make([]ReferencePoint, len(zScoreMedians))
	for age := range zScoreMedians {
		points[age] = ReferencePoint{
			AgeMonths:    age,
			MedianHeight: zScoreMedians[age],
			StdDev:       zScoreStdDevs[age],
		}
	}
	return mustTable(KindZScore, points)
}

// LinearReferenceTable tabulates the linear expected-height curve for every month as a
// banded table: lower is the 90% threshold, upper the mirrored 110%.
func LinearReferenceTable() *ReferenceTable {
	points := make([]ReferencePoint, 0, MaxAgeMonths+1)
	for age := MinAgeMonths; age <= MaxAgeMonths; age++ {
		expected := ExpectedHeight(age)
		points = append(points, ReferencePoint{
			AgeMonths: age,
			HeightMin: LinearThreshold(age),
			HeightMax: expected * (2 - linearThresholdRatio),
		})
	}
	table := mustTable(KindBanded, points)
	table.basis = BasisLinear
	return table
}

func mustTable(kind TableKind, points []ReferencePoint) *ReferenceTable {
	table, err := NewReferenceTable(kind, points)
	if err != nil {
		panic(err)
	}
	return table
}
