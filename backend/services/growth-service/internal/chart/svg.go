// Package chart draws growth chart data as a standalone SVG document.
package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"growthwatch/backend/services/growth-service/internal/growth"
)

// Options sizes the drawing. Zero values use defaults.
type Options struct {
	Width  int
	Height int
	Title  string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 640
	}
	if o.Height <= 0 {
		o.Height = 400
	}
	if o.Title == "" {
		o.Title = "Estatura del niño frente a la referencia"
	}
	return o
}

const (
	marginLeft   = 56
	marginRight  = 16
	marginTop    = 36
	marginBottom = 44
)

var seriesColor = map[string]string{
	growth.SeriesUpper:   "#1f6fd1",
	growth.SeriesCentral: "#2e9e44",
	growth.SeriesLower:   "#e08a1e",
	growth.SeriesChild:   "#d62828",
}

const childName = "Estatura del niño"

// seriesNames gives the legend wording for each basis; unknown bases get neutral names.
var seriesNames = map[growth.ChartBasis]map[string]string{
	growth.BasisZScore: {
		growth.SeriesUpper:   "Máximo (+2 DE)",
		growth.SeriesCentral: "Mediana",
		growth.SeriesLower:   "Umbral DCI (-2 DE)",
	},
	growth.BasisBanded: {
		growth.SeriesUpper:   "Talla máxima",
		growth.SeriesCentral: "Punto medio",
		growth.SeriesLower:   "Talla mínima",
	},
	growth.BasisLinear: {
		growth.SeriesUpper:   "110% de la talla esperada",
		growth.SeriesCentral: "Talla esperada",
		growth.SeriesLower:   "Umbral DCI (90% esperada)",
	},
	"": {
		growth.SeriesUpper:   "Límite superior",
		growth.SeriesCentral: "Referencia",
		growth.SeriesLower:   "Límite inferior",
	},
}

func seriesName(basis growth.ChartBasis, label string) string {
	names, ok := seriesNames[basis]
	if !ok {
		names = seriesNames[""]
	}
	return names[label]
}

type line struct {
	Color  string
	Name   string
	Points string
	Dashed bool
}

type tick struct {
	Pos   float64
	Label string
}

type view struct {
	Opts       Options
	PlotLeft   float64
	PlotRight  float64
	PlotTop    float64
	PlotBottom float64
	Band       string
	Lines      []line
	Legend     []line
	ChildX     float64
	ChildY     float64
	ChildColor string
	ChildName  string
	XTicks     []tick
	YTicks     []tick
	LegendY    []float64
}

var svgTemplate = template.Must(template.New("chart").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Opts.Width}}" height="{{.Opts.Height}}" viewBox="0 0 {{.Opts.Width}} {{.Opts.Height}}" role="img" aria-label="{{.Opts.Title}}">
<rect width="100%" height="100%" fill="#ffffff"/>
<text x="{{.PlotLeft}}" y="20" font-size="14" font-family="sans-serif">{{.Opts.Title}}</text>
<polygon points="{{.Band}}" fill="#2e9e44" fill-opacity="0.12" stroke="none"/>
{{range .XTicks}}<line x1="{{.Pos}}" y1="{{$.PlotTop}}" x2="{{.Pos}}" y2="{{$.PlotBottom}}" stroke="#e5e5e5"/>
<text x="{{.Pos}}" y="{{$.PlotBottom}}" dy="16" font-size="11" text-anchor="middle" font-family="sans-serif">{{.Label}}</text>
{{end}}{{range .YTicks}}<line x1="{{$.PlotLeft}}" y1="{{.Pos}}" x2="{{$.PlotRight}}" y2="{{.Pos}}" stroke="#e5e5e5"/>
<text x="{{$.PlotLeft}}" y="{{.Pos}}" dx="-6" dy="4" font-size="11" text-anchor="end" font-family="sans-serif">{{.Label}}</text>
{{end}}<line x1="{{.PlotLeft}}" y1="{{.PlotBottom}}" x2="{{.PlotRight}}" y2="{{.PlotBottom}}" stroke="#333"/>
<line x1="{{.PlotLeft}}" y1="{{.PlotTop}}" x2="{{.PlotLeft}}" y2="{{.PlotBottom}}" stroke="#333"/>
{{range .Lines}}<polyline points="{{.Points}}" fill="none" stroke="{{.Color}}" stroke-width="2"{{if .Dashed}} stroke-dasharray="6 4"{{end}}><title>{{.Name}}</title></polyline>
{{end}}<circle cx="{{.ChildX}}" cy="{{.ChildY}}" r="7" fill="{{.ChildColor}}"><title>{{.ChildName}}</title></circle>
<text x="{{.PlotLeft}}" y="{{.Opts.Height}}" dy="-6" font-size="11" font-family="sans-serif">Edad (meses)</text>
<text transform="rotate(-90)" x="-{{.PlotTop}}" y="14" font-size="11" text-anchor="end" font-family="sans-serif">Estatura (cm)</text>
{{range $i, $l := .Legend}}<g font-size="11" font-family="sans-serif"><rect x="{{$.PlotRight}}" y="{{index $.LegendY $i}}" transform="translate(-150,0)" width="10" height="10" fill="{{$l.Color}}"/><text x="{{$.PlotRight}}" y="{{index $.LegendY $i}}" transform="translate(-134,9)">{{$l.Name}}</text></g>
{{end}}</svg>`))

// RenderSVG draws the three reference curves, the shaded normal band between lower and
// upper, and the child's point. The axes extend to include the child even when the table
// does not cover its age.
func RenderSVG(data growth.ChartData, opts Options) (template.HTML, error) {
	opts = opts.withDefaults()
	if len(data.Central.Points) == 0 {
		return "", fmt.Errorf("chart: no reference points")
	}

	xs, ys := collect(data)
	xMin, xMax := floats.Min(xs), floats.Max(xs)
	yMin, yMax := floats.Min(ys), floats.Max(ys)
	yMin = math.Floor((yMin-2)/10) * 10
	yMax = math.Ceil((yMax+2)/10) * 10
	if xMax == xMin {
		xMax = xMin + 1
	}

	v := view{
		Opts:       opts,
		PlotLeft:   marginLeft,
		PlotRight:  float64(opts.Width - marginRight),
		PlotTop:    marginTop,
		PlotBottom: float64(opts.Height - marginBottom),
	}
	sx := func(x float64) float64 {
		return round1(v.PlotLeft + (x-xMin)/(xMax-xMin)*(v.PlotRight-v.PlotLeft))
	}
	sy := func(y float64) float64 {
		return round1(v.PlotBottom - (y-yMin)/(yMax-yMin)*(v.PlotBottom-v.PlotTop))
	}

	for _, s := range data.ReferenceSeries() {
		v.Lines = append(v.Lines, line{
			Color:  seriesColor[s.Label],
			Name:   seriesName(data.Basis, s.Label),
			Points: polyline(s.Points, sx, sy),
			Dashed: s.Label == growth.SeriesCentral,
		})
	}

	band := append([]growth.Point{}, data.Upper.Points...)
	for i := len(data.Lower.Points) - 1; i >= 0; i-- {
		band = append(band, data.Lower.Points[i])
	}
	v.Band = polyline(band, sx, sy)

	v.ChildX, v.ChildY = sx(data.Child.X), sy(data.Child.Y)
	v.ChildColor, v.ChildName = seriesColor[growth.SeriesChild], childName
	v.Legend = append(append([]line{}, v.Lines...), line{Color: v.ChildColor, Name: v.ChildName})

	for x := math.Ceil(xMin/12) * 12; x <= xMax; x += 12 {
		v.XTicks = append(v.XTicks, tick{Pos: sx(x), Label: fmt.Sprintf("%.0f", x)})
	}
	for y := yMin; y <= yMax; y += 10 {
		v.YTicks = append(v.YTicks, tick{Pos: sy(y), Label: fmt.Sprintf("%.0f", y)})
	}
	for i := range v.Legend {
		v.LegendY = append(v.LegendY, v.PlotBottom-float64(len(v.Legend)-i)*16)
	}

	var buf bytes.Buffer
	if err := svgTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("chart: render svg: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func collect(data growth.ChartData) (xs, ys []float64) {
	for _, s := range data.ReferenceSeries() {
		for _, p := range s.Points {
			xs = append(xs, p.X)
			ys = append(ys, p.Y)
		}
	}
	xs = append(xs, data.Child.X)
	ys = append(ys, data.Child.Y)
	return xs, ys
}

func polyline(points []growth.Point, sx, sy func(float64) float64) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, fmt.Sprintf("%g,%g", sx(p.X), sy(p.Y)))
	}
	return strings.Join(parts, " ")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
