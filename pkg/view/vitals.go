package view

import (
	"strconv"
	"time"

	"github.com/NicolasHaas/medscribe/pkg/model"
)

// EmptyVitalsText is shown when a patient has no vitals.
const EmptyVitalsText = "No vitals recorded"

const missing = "-"

// VitalsRow is one line of the vitals table.
type VitalsRow struct {
	ID          int64
	Date        string
	Time        string
	BP          string
	HeartRate   string
	Temperature string
	SpO2        string
}

// VitalsRows renders the table newest first, as returned by the backend.
func VitalsRows(items []model.Vitals, c Clock) []VitalsRow {
	rows := make([]VitalsRow, 0, len(items))
	for _, v := range items {
		date, clock := c.Stamp(v.CreatedAt)
		bp := missing
		if v.SystolicBP != nil && v.DiastolicBP != nil {
			bp = strconv.Itoa(*v.SystolicBP) + "/" + strconv.Itoa(*v.DiastolicBP)
		}
		rows = append(rows, VitalsRow{
			ID:          v.ID,
			Date:        date,
			Time:        clock,
			BP:          bp,
			HeartRate:   intOrMissing(v.HeartRate),
			Temperature: floatOrMissing(v.Temperature),
			SpO2:        intOrMissing(v.SpO2),
		})
	}
	return rows
}

// Point is one sample of the vitals chart. Absent measurements are nil.
type Point struct {
	At          time.Time
	Label       string
	Systolic    *float64
	Diastolic   *float64
	HeartRate   *float64
	Temperature *float64
	SpO2        *float64
}

// VitalsSeries reverses the newest-first list into chronological order for
// charting. Entries with unparseable timestamps are skipped.
func VitalsSeries(items []model.Vitals, c Clock) []Point {
	points := make([]Point, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		v := items[i]
		at, err := ParseServerTime(string(v.CreatedAt))
		if err != nil {
			continue
		}
		points = append(points, Point{
			At:          at,
			Label:       c.Date(at),
			Systolic:    intPtrToFloat(v.SystolicBP),
			Diastolic:   intPtrToFloat(v.DiastolicBP),
			HeartRate:   intPtrToFloat(v.HeartRate),
			Temperature: v.Temperature,
			SpO2:        intPtrToFloat(v.SpO2),
		})
	}
	return points
}

func intOrMissing(v *int) string {
	if v == nil {
		return missing
	}
	return strconv.Itoa(*v)
}

func floatOrMissing(v *float64) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func intPtrToFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
