package growth

// Series labels produced by DeriveChart.
const (
	SeriesUpper   = "upper"
	SeriesCentral = "central"
	SeriesLower   = "lower"
	SeriesChild   = "child"
)

// Point is one (age, height) coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is a labelled line over the age domain.
type Series struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// ChartData holds the three reference curves and the child's point.
type ChartData struct {
	Basis   ChartBasis `json:"basis,omitempty"`
	Upper   Series     `json:"upper"`
	Central Series     `json:"central"`
	Lower   Series     `json:"lower"`
	Child   Point      `json:"child"`
}

// Triple is a flattened chart row for charting layers that want long-form data.
type Triple struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"series"`
}

// DeriveChart builds upper/central/lower series with one point per table row, plus the
// child's (age, height) point.
func DeriveChart(table *ReferenceTable, m Measurement) ChartData {
	n := table.Len()
	data := ChartData{
		Basis:   table.Basis(),
		Upper:   Series{Label: SeriesUpper, Points: make([]Point, 0, n)},
		Central: Series{Label: SeriesCentral, Points: make([]Point, 0, n)},
		Lower:   Series{Label: SeriesLower, Points: make([]Point, 0, n)},
		Child:   Point{X: float64(m.AgeMonths), Y: m.HeightCm},
	}
	for _, p := range table.points {
		lower, central, upper := table.Band(p)
		x := float64(p.AgeMonths)
		data.Upper.Points = append(data.Upper.Points, Point{X: x, Y: upper})
		data.Central.Points = append(data.Central.Points, Point{X: x, Y: central})
		data.Lower.Points = append(data.Lower.Points, Point{X: x, Y: lower})
	}
	return data
}

// ReferenceSeries returns the three reference curves in upper, central, lower order.
func (c ChartData) ReferenceSeries() []Series {
	return []Series{c.Upper, c.Central, c.Lower}
}

// Triples flattens the chart; the child's point comes last.
func (c ChartData) Triples() []Triple {
	out := make([]Triple, 0, 3*len(c.Central.Points)+1)
	for _, s := range c.ReferenceSeries() {
		for _, p := range s.Points {
			out = append(out, Triple{X: p.X, Y: p.Y, Label: s.Label})
		}
	}
	return append(out, Triple{X: c.Child.X, Y: c.Child.Y, Label: SeriesChild})
}
