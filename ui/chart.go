package ui

import (
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/NicolasHaas/medscribe/pkg/view"
)

const (
	chartWidth  = 640
	chartHeight = 180
	chartPad    = 8
)

type series struct {
	name  string
	color color.NRGBA
	value func(p view.Point) *float64
}

// Temperature is left to the table; its scale would flatten the other lines.
var chartSeries = []series{
	{name: "Systolic", color: color.NRGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}, value: func(p view.Point) *float64 { return p.Systolic }},
	{name: "Diastolic", color: color.NRGBA{R: 0x19, G: 0x76, B: 0xd2, A: 0xff}, value: func(p view.Point) *float64 { return p.Diastolic }},
	{name: "Heart rate", color: color.NRGBA{R: 0x38, G: 0x8e, B: 0x3c, A: 0xff}, value: func(p view.Point) *float64 { return p.HeartRate }},
	{name: "SpO2", color: color.NRGBA{R: 0x7b, G: 0x1f, B: 0xa2, A: 0xff}, value: func(p view.Point) *float64 { return p.SpO2 }},
}

type segment struct {
	series         int
	x1, y1, x2, y2 float32
}

type marker struct {
	series int
	x, y   float32
}

// chartGeometry lays the series out in a w×h box sharing one y range.
// Missing values break a line rather than joining across the gap.
func chartGeometry(points []view.Point, w, h float32) ([]segment, []marker) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		for _, s := range chartSeries {
			if v := s.value(p); v != nil {
				lo = math.Min(lo, *v)
				hi = math.Max(hi, *v)
			}
		}
	}
	if math.IsInf(lo, 1) {
		return nil, nil
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}

	x := func(i int) float32 {
		if len(points) == 1 {
			return w / 2
		}
		return float32(i) * w / float32(len(points)-1)
	}
	y := func(v float64) float32 {
		return h - float32((v-lo)/(hi-lo))*h
	}

	var (
		segs    []segment
		markers []marker
	)
	for si, s := range chartSeries {
		for i, p := range points {
			v := s.value(p)
			if v == nil {
				continue
			}
			markers = append(markers, marker{series: si, x: x(i), y: y(*v)})
			if i == 0 {
				continue
			}
			if prev := s.value(points[i-1]); prev != nil {
				segs = append(segs, segment{series: si, x1: x(i - 1), y1: y(*prev), x2: x(i), y2: y(*v)})
			}
		}
	}
	return segs, markers
}

// vitalsChart draws the trend lines with a legend underneath.
func vitalsChart(points []view.Point) fyne.CanvasObject {
	if len(points) == 0 {
		return widget.NewLabel(view.EmptyVitalsText)
	}

	w, h := float32(chartWidth-2*chartPad), float32(chartHeight-2*chartPad)
	segs, markers := chartGeometry(points, w, h)

	bg := canvas.NewRectangle(color.NRGBA{A: 0x10})
	bg.Resize(fyne.NewSize(chartWidth, chartHeight))
	objects := []fyne.CanvasObject{bg}
	for _, s := range segs {
		line := canvas.NewLine(chartSeries[s.series].color)
		line.StrokeWidth = 2
		line.Position1 = fyne.NewPos(s.x1+chartPad, s.y1+chartPad)
		line.Position2 = fyne.NewPos(s.x2+chartPad, s.y2+chartPad)
		objects = append(objects, line)
	}
	for _, m := range markers {
		dot := canvas.NewCircle(chartSeries[m.series].color)
		dot.Resize(fyne.NewSize(6, 6))
		dot.Move(fyne.NewPos(m.x+chartPad-3, m.y+chartPad-3))
		objects = append(objects, dot)
	}
	plot := container.NewWithoutLayout(objects...)
	sizer := canvas.NewRectangle(color.Transparent)
	sizer.SetMinSize(fyne.NewSize(chartWidth, chartHeight))

	legend := container.NewHBox()
	for _, s := range chartSeries {
		legend.Add(canvas.NewText("■ "+s.name, s.color))
	}
	first := widget.NewLabel(points[0].Label)
	last := widget.NewLabel(points[len(points)-1].Label)
	axis := container.NewBorder(nil, nil, first, last)

	return container.NewVBox(container.NewStack(sizer, plot), axis, legend)
}
