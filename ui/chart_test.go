package ui

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/NicolasHaas/medscribe/pkg/view"
)

func fp(v float64) *float64 { return &v }

func TestChartGeometry(t *testing.T) {
	points := []view.Point{
		{Systolic: fp(120), HeartRate: fp(60)},
		{Systolic: fp(140)},
		{Systolic: fp(100), HeartRate: fp(80)},
	}
	segs, markers := chartGeometry(points, 200, 100)

	// systolic joins all three; heart rate has a gap in the middle
	want := []segment{
		{series: 0, x1: 0, y1: 25, x2: 100, y2: 0},
		{series: 0, x1: 100, y1: 0, x2: 200, y2: 50},
	}
	if diff := cmp.Diff(want, segs, cmp.AllowUnexported(segment{})); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	if len(markers) != 5 {
		t.Errorf("got %d markers, want 5", len(markers))
	}
	for _, m := range markers {
		if m.y < 0 || m.y > 100 {
			t.Errorf("marker out of range: %+v", m)
		}
	}
}

func TestChartGeometryEdgeCases(t *testing.T) {
	if segs, markers := chartGeometry(nil, 200, 100); segs != nil || markers != nil {
		t.Error("empty input should draw nothing")
	}
	if segs, markers := chartGeometry([]view.Point{{Temperature: fp(37)}}, 200, 100); segs != nil || markers != nil {
		t.Error("temperature-only input should draw nothing")
	}

	_, markers := chartGeometry([]view.Point{{SpO2: fp(98)}}, 200, 100)
	want := []marker{{series: 3, x: 100, y: 50}}
	if diff := cmp.Diff(want, markers, cmp.AllowUnexported(marker{})); diff != "" {
		t.Errorf("single point mismatch (-want +got):\n%s", diff)
	}
}
