package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/audit"
	"github.com/NicolasHaas/medscribe/pkg/model"
)

// Report messages.
const (
	MsgReportDatesRequired = "Please select both start and end dates"
	MsgReportFailed        = "Failed to generate report"
	MsgReportError         = "Error generating report"
)

// DownloadReport fetches a patient report and saves it in dir as
// report_{id}_{period}.pdf, returning the final path. The document is
// written to a temporary file first so a failed download leaves nothing
// behind.
func (s *Submitter) DownloadReport(ctx context.Context, form FormView, req model.ReportRequest, dir string) (string, error) {
	rec, err := s.e.Guard()
	if err != nil {
		return "", err
	}
	form.ClearError()
	if err := req.Validate(); err != nil {
		if errors.Is(err, model.ErrReportDatesRequired) {
			form.ShowError(MsgReportDatesRequired)
			return "", err
		}
		return "", invalid(form, err)
	}

	ev := audit.Event{Kind: audit.KindReportDownloaded, UserID: rec.UserID, PatientID: req.PatientID}

	data, err := s.e.API().Report(ctx, req)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return "", err
		}
		ev.Outcome, ev.Detail = audit.OutcomeFailed, failureDetail(err)
		s.e.record(ctx, ev)
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			form.ShowError(api.DetailOr(err, MsgReportFailed))
		} else {
			form.ShowError(MsgReportError)
		}
		return "", err
	}

	path, err := writeReport(dir, req.FileName(), data)
	if err != nil {
		slog.Error("save report", "patient_id", req.PatientID, "err", err)
		ev.Outcome, ev.Detail = audit.OutcomeFailed, "write failed"
		s.e.record(ctx, ev)
		form.ShowError(MsgReportError)
		return "", err
	}

	s.e.record(ctx, ev)
	slog.Info("report saved", "patient_id", req.PatientID, "period", req.Period, "bytes", len(data))
	form.Close()
	form.Reset()
	return path, nil
}

// DefaultReportDir prefers the user's Downloads folder, then home.
func DefaultReportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ConfigDir()
	}
	downloads := filepath.Join(home, "Downloads")
	if info, err := os.Stat(downloads); err == nil && info.IsDir() {
		return downloads
	}
	return home
}

func writeReport(dir, name string, data []byte) (path string, err error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("client: create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, name+".*.part")
	if err != nil {
		return "", fmt.Errorf("client: create temp report: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return "", fmt.Errorf("client: write report: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("client: close report: %w", err)
	}
	path = filepath.Join(dir, name)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("client: rename report: %w", err)
	}
	return path, nil
}
