package ui

import (
	"context"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/NicolasHaas/medscribe/pkg/client"
	"github.com/NicolasHaas/medscribe/pkg/model"
)

func (a *App) showAddPatientDialog(reload func()) {
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Full name")
	phoneEntry := widget.NewEntry()
	phoneEntry.SetPlaceHolder("Phone number")
	priceEntry := widget.NewEntry()
	priceEntry.SetPlaceHolder("Membership price (optional)")

	content := widget.NewForm(
		widget.NewFormItem("Name", nameEntry),
		widget.NewFormItem("Phone", phoneEntry),
		widget.NewFormItem("Membership", priceEntry),
	)
	f := a.newFormDialog("Add Patient", "Add", content, func(f *formDialog) func(context.Context) {
		req := model.RegisterPatientRequest{
			Name:            nameEntry.Text,
			PhoneNumber:     phoneEntry.Text,
			MembershipPrice: client.ParseFloat(priceEntry.Text),
		}
		return func(ctx context.Context) {
			_ = a.engine.Submitter().RegisterPatient(ctx, f, req, func(context.Context) error {
				fyne.Do(reload)
				return nil
			})
		}
	})
	f.reset = func() {
		nameEntry.SetText("")
		phoneEntry.SetText("")
		priceEntry.SetText("")
	}
	f.d.Resize(fyne.NewSize(420, 260))
	f.d.Show()
}

func (a *App) showVitalsDialog(patientID int64, reload func(ctx context.Context) error) {
	sysEntry := widget.NewEntry()
	sysEntry.SetPlaceHolder("120")
	diaEntry := widget.NewEntry()
	diaEntry.SetPlaceHolder("80")
	hrEntry := widget.NewEntry()
	hrEntry.SetPlaceHolder("bpm")
	tempEntry := widget.NewEntry()
	tempEntry.SetPlaceHolder("°F")
	spo2Entry := widget.NewEntry()
	spo2Entry.SetPlaceHolder("%")

	content := widget.NewForm(
		widget.NewFormItem("Systolic BP", sysEntry),
		widget.NewFormItem("Diastolic BP", diaEntry),
		widget.NewFormItem("Heart Rate", hrEntry),
		widget.NewFormItem("Temperature", tempEntry),
		widget.NewFormItem("SpO2", spo2Entry),
	)
	f := a.newFormDialog("Log Vitals", "Save", content, func(f *formDialog) func(context.Context) {
		req := model.VitalsRequest{
			PatientID:   patientID,
			SystolicBP:  client.ParseInt(sysEntry.Text),
			DiastolicBP: client.ParseInt(diaEntry.Text),
			HeartRate:   client.ParseInt(hrEntry.Text),
			Temperature: client.ParseFloat(tempEntry.Text),
			SpO2:        client.ParseInt(spo2Entry.Text),
		}
		return func(ctx context.Context) { _ = a.engine.Submitter().LogVitals(ctx, f, req, reload) }
	})
	f.reset = func() {
		for _, e := range []*widget.Entry{sysEntry, diaEntry, hrEntry, tempEntry, spo2Entry} {
			e.SetText("")
		}
	}
	f.d.Resize(fyne.NewSize(380, 340))
	f.d.Show()
}

func (a *App) showShareDialog(patientID int64, reload func(ctx context.Context) error) {
	emailEntry := widget.NewEntry()
	emailEntry.SetPlaceHolder("colleague@clinic.in")
	permSelect := widget.NewSelect([]string{string(model.AccessView), string(model.AccessEdit)}, nil)
	permSelect.SetSelected(string(model.AccessView))

	content := widget.NewForm(
		widget.NewFormItem("User email", emailEntry),
		widget.NewFormItem("Permission", permSelect),
	)
	f := a.newFormDialog("Share Patient", "Share", content, func(f *formDialog) func(context.Context) {
		req := model.ShareRequest{UserEmail: emailEntry.Text, Permission: model.AccessLevel(permSelect.Selected)}
		return func(ctx context.Context) { _ = a.engine.Submitter().Share(ctx, f, patientID, req, reload) }
	})
	f.reset = func() {
		emailEntry.SetText("")
		permSelect.SetSelected(string(model.AccessView))
	}
	f.d.Resize(fyne.NewSize(400, 220))
	f.d.Show()
}

var periodLabels = map[model.ReportPeriod]string{
	model.Period1Month:  "Last month",
	model.Period3Months: "Last 3 months",
	model.Period6Months: "Last 6 months",
	model.Period1Year:   "Last year",
	model.PeriodAll:     "All time",
	model.PeriodCustom:  "Custom range",
}

func (a *App) showReportDialog(patientID int64) {
	labels := make([]string, 0, len(model.ReportPeriods))
	byLabel := make(map[string]model.ReportPeriod, len(model.ReportPeriods))
	for _, p := range model.ReportPeriods {
		labels = append(labels, periodLabels[p])
		byLabel[periodLabels[p]] = p
	}

	startEntry := widget.NewEntry()
	startEntry.SetPlaceHolder("YYYY-MM-DD")
	endEntry := widget.NewEntry()
	endEntry.SetPlaceHolder("YYYY-MM-DD")
	custom := container.NewVBox(
		widget.NewLabel("Start date"), startEntry,
		widget.NewLabel("End date"), endEntry,
	)
	custom.Hide()

	periodSelect := widget.NewSelect(labels, func(selected string) {
		if byLabel[selected] == model.PeriodCustom {
			custom.Show()
		} else {
			custom.Hide()
		}
	})
	periodSelect.SetSelected(periodLabels[model.Period3Months])

	dir := client.DefaultReportDir()
	content := container.NewVBox(
		widget.NewLabel("Period"),
		periodSelect,
		custom,
		widget.NewLabel("Saved to "+dir),
	)
	f := a.newFormDialog("Generate Report", "Generate", content, func(f *formDialog) func(context.Context) {
		req := model.ReportRequest{
			PatientID: patientID,
			Period:    byLabel[periodSelect.Selected],
			Start:     strings.TrimSpace(startEntry.Text),
			End:       strings.TrimSpace(endEntry.Text),
		}
		return func(ctx context.Context) {
			path, err := a.engine.Submitter().DownloadReport(ctx, f, req, dir)
			if err != nil {
				return
			}
			fyne.Do(func() {
				dialog.ShowInformation("Report", "Report saved to "+path, a.window)
			})
		}
	})
	f.reset = func() {
		startEntry.SetText("")
		endEntry.SetText("")
	}
	f.d.Resize(fyne.NewSize(420, 300))
	f.d.Show()
}
