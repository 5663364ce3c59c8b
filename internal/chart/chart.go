// Package chart renders a patient's INR history as a PNG line chart.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no INR history to plot")

const (
	// Ceiling is where values above the y range are drawn.
	Ceiling = 5.5
	// Alarm marks a point in red once the raw value reaches it.
	Alarm = 6.0

	BandLow  = 2.0
	BandHigh = 3.5

	yMin = 0.5
	yMax = 6.2

	labelLift = 0.15
)

var (
	lineColor  = color.RGBA{R: 0x00, G: 0x7b, B: 0xff, A: 0xff}
	alarmColor = color.RGBA{R: 0xff, A: 0xff}
	bandColor  = color.RGBA{G: 0x80, A: 0x1a}
)

// Renderer draws INR charts. The zero value is ready to use.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

// Point is one plotted value. Y is clamped to Ceiling, Raw is what the label shows.
type Point struct {
	X     float64
	Y     float64
	Raw   float64
	Alarm bool
}

// Points clamps the series for drawing.
func Points(values []float64) []Point {
	out := make([]Point, len(values))
	for i, v := range values {
		y := v
		if y > Ceiling {
			y = Ceiling
		}
		out[i] = Point{X: float64(i), Y: y, Raw: v, Alarm: v >= Alarm}
	}
	return out
}

// Render returns a PNG of the series. dates label the x axis one-to-one.
func (r Renderer) Render(dates []string, values []float64) ([]byte, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}
	if len(dates) != len(values) {
		return nil, fmt.Errorf("chart: %d dates for %d values", len(dates), len(values))
	}
	w, h := r.Width, r.Height
	if w == 0 {
		w = 8 * vg.Inch
	}
	if h == 0 {
		h = 4 * vg.Inch
	}

	p := plot.New()
	p.Title.Text = "INR chart"
	p.Y.Label.Text = "INR"
	p.Y.Min, p.Y.Max = yMin, yMax
	p.Y.Tick.Marker = halfTicks()
	p.NominalX(dates...)
	p.X.Tick.Label.Rotation = 0.785
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Min, p.X.Max = -0.5, float64(len(values))-0.5

	band, err := plotter.NewPolygon(plotter.XYs{
		{X: p.X.Min, Y: BandLow}, {X: p.X.Max, Y: BandLow},
		{X: p.X.Max, Y: BandHigh}, {X: p.X.Min, Y: BandHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("chart band: %w", err)
	}
	band.Color = bandColor
	band.LineStyle.Width = 0
	p.Add(band)

	pts := Points(values)
	xys := make(plotter.XYs, len(pts))
	var alarms plotter.XYs
	lbl := plotter.XYLabels{XYs: make(plotter.XYs, len(pts)), Labels: make([]string, len(pts))}
	for i, pt := range pts {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		lbl.XYs[i] = plotter.XY{X: pt.X, Y: pt.Y + labelLift}
		lbl.Labels[i] = fmt.Sprintf("%.1f", pt.Raw)
		if pt.Alarm {
			alarms = append(alarms, xys[i])
		}
	}

	line, marks, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, fmt.Errorf("chart line: %w", err)
	}
	line.Color = lineColor
	marks.Color = lineColor
	marks.Shape = draw.CircleGlyph{}
	p.Add(line, marks)

	if len(alarms) > 0 {
		red, err := plotter.NewScatter(alarms)
		if err != nil {
			return nil, fmt.Errorf("chart alarms: %w", err)
		}
		red.Color = alarmColor
		red.Shape = draw.CircleGlyph{}
		red.Radius = vg.Points(5)
		p.Add(red)
	}

	labels, err := plotter.NewLabels(lbl)
	if err != nil {
		return nil, fmt.Errorf("chart labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
	}
	p.Add(labels)

	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("chart encode: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart write: %w", err)
	}
	return buf.Bytes(), nil
}

func halfTicks() plot.ConstantTicks {
	var ticks []plot.Tick
	for i := 1; i <= 11; i++ {
		v := float64(i) * 0.5
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.1f", v)})
	}
	return ticks
}
