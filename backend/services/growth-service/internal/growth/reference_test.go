package growth

import (
	"math"
	"testing"
)

func TestBuiltInTables(t *testing.T) {
	z := ZScoreReferenceTable()
	if z.Len() != 61 {
		t.Fatalf("expected 61 monthly rows, got %d", z.Len())
	}
	first, _ := z.Lookup(0)
	last, _ := z.Lookup(60)
	if first.MedianHeight != 49.9 || first.StdDev != 1.8 {
		t.Fatalf("unexpected month 0 row %+v", first)
	}
	if last.MedianHeight != 108.3 || last.StdDev != 2.7 {
		t.Fatalf("unexpected month 60 row %+v", last)
	}

	b := BandedReferenceTable()
	if b.Len() != 5 {
		t.Fatalf("expected 5 yearly rows, got %d", b.Len())
	}
	if _, ok := b.Lookup(30); ok {
		t.Fatalf("banded table must not interpolate")
	}

	l := LinearReferenceTable()
	if l.Len() != 61 {
		t.Fatalf("expected 61 linear rows, got %d", l.Len())
	}
	p, _ := l.Lookup(24)
	lower, central, upper := l.Band(p)
	if math.Abs(lower-98.91) > 1e-9 || math.Abs(central-109.9) > 1e-9 || math.Abs(upper-120.89) > 1e-9 {
		t.Fatalf("unexpected linear band %.3f/%.3f/%.3f", lower, central, upper)
	}
}

func TestNewReferenceTableValidation(t *testing.T) {
	cases := []struct {
		name   string
		kind   TableKind
		points []ReferencePoint
	}{
		{"empty", KindZScore, nil},
		{"unknown kind", "percentile", []ReferencePoint{{AgeMonths: 1, MedianHeight: 50, StdDev: 2}}},
		{"age too high", KindZScore, []ReferencePoint{{AgeMonths: 61, MedianHeight: 110, StdDev: 2}}},
		{"negative age", KindBanded, []ReferencePoint{{AgeMonths: -1, HeightMin: 40, HeightMax: 50}}},
		{"duplicate age", KindZScore, []ReferencePoint{{AgeMonths: 3, MedianHeight: 60, StdDev: 2}, {AgeMonths: 3, MedianHeight: 61, StdDev: 2}}},
		{"inverted band", KindBanded, []ReferencePoint{{AgeMonths: 12, HeightMin: 78, HeightMax: 70}}},
		{"flat band", KindBanded, []ReferencePoint{{AgeMonths: 12, HeightMin: 70, HeightMax: 70}}},
		{"zero sd", KindZScore, []ReferencePoint{{AgeMonths: 12, MedianHeight: 75, StdDev: 0}}},
	}
	for _, tc := range cases {
		if _, err := NewReferenceTable(tc.kind, tc.points); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestNewReferenceTableSortsAndCopies(t *testing.T) {
	points := []ReferencePoint{
		{AgeMonths: 24, HeightMin: 80, HeightMax: 88},
		{AgeMonths: 12, HeightMin: 70, HeightMax: 78},
	}
	table, err := NewReferenceTable(KindBanded, points)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	points[0].HeightMin = 1

	got := table.Points()
	if got[0].AgeMonths != 12 || got[1].AgeMonths != 24 {
		t.Fatalf("expected ascending ages, got %+v", got)
	}
	if got[1].HeightMin != 80 {
		t.Fatalf("table must not alias caller slice")
	}
}

func TestParseReference(t *testing.T) {
	data := []byte(`
kind: zscore
points:
  - {age_months: 1, median_height: 54.7, std_dev: 1.9}
  - {age_months: 0, median_height: 49.9, std_dev: 1.9}
`)
	table, err := ParseReference(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if table.Kind() != KindZScore || table.Len() != 2 {
		t.Fatalf("unexpected table kind=%s len=%d", table.Kind(), table.Len())
	}
	p, ok := table.Lookup(1)
	if !ok || p.StdDev != 1.9 {
		t.Fatalf("unexpected row %+v", p)
	}

	if _, err := ParseReference([]byte("points:\n  - {age_months: 0, median_height: 49.9, std_dev: 0}\n")); err == nil {
		t.Fatalf("expected validation error for zero sd")
	}
	if _, err := ParseReference([]byte("points: [")); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestMeasurementValidate(t *testing.T) {
	valid := []Measurement{
		{AgeMonths: 0, WeightKg: 3.2, HeightCm: 49},
		{AgeMonths: 60, WeightKg: 50, HeightCm: 150},
	}
	for _, m := range valid {
		if err := m.Validate(); err != nil {
			t.Fatalf("%+v: unexpected error %v", m, err)
		}
	}

	invalid := []Measurement{
		{AgeMonths: -1, WeightKg: 10, HeightCm: 70},
		{AgeMonths: 61, WeightKg: 10, HeightCm: 70},
		{AgeMonths: 12, WeightKg: 0, HeightCm: 70},
		{AgeMonths: 12, WeightKg: 50.1, HeightCm: 70},
		{AgeMonths: 12, WeightKg: 10, HeightCm: 0},
		{AgeMonths: 12, WeightKg: 10, HeightCm: 151},
		{AgeMonths: 12, WeightKg: math.NaN(), HeightCm: 70},
	}
	for _, m := range invalid {
		if err := m.Validate(); err == nil {
			t.Fatalf("%+v: expected validation error", m)
		}
	}
}
