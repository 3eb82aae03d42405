package model

import (
	"errors"
	"fmt"
)

// ReportPeriod selects the time range of a generated patient report.
type ReportPeriod string

const (
	Period1Month  ReportPeriod = "1_month"
	Period3Months ReportPeriod = "3_months"
	Period6Months ReportPeriod = "6_months"
	Period1Year   ReportPeriod = "1_year"
	PeriodAll     ReportPeriod = "all"
	PeriodCustom  ReportPeriod = "custom"
)

// ReportPeriods lists the periods in the order the forms offer them.
var ReportPeriods = []ReportPeriod{Period1Month, Period3Months, Period6Months, Period1Year, PeriodAll, PeriodCustom}

var ErrReportDatesRequired = errors.New("please select both start and end dates")

// ReportRequest describes GET /patients/{id}/report. Start and End are
// YYYY-MM-DD and only used with PeriodCustom.
type ReportRequest struct {
	PatientID int64
	Period    ReportPeriod
	Start     string
	End       string
}

// Validate checks the period and, for a custom range, that both dates are set.
func (r ReportRequest) Validate() error {
	if r.PatientID <= 0 {
		return ErrMissingPatient
	}
	valid := false
	for _, p := range ReportPeriods {
		if r.Period == p {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown report period %q", r.Period)
	}
	if r.Period == PeriodCustom && (r.Start == "" || r.End == "") {
		return ErrReportDatesRequired
	}
	return nil
}

// FileName is the name a downloaded report is saved under.
func (r ReportRequest) FileName() string {
	return fmt.Sprintf("report_%d_%s.pdf", r.PatientID, r.Period)
}
