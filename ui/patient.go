package ui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/NicolasHaas/medscribe/pkg/model"
	"github.com/NicolasHaas/medscribe/pkg/rbac"
	"github.com/NicolasHaas/medscribe/pkg/session"
	"github.com/NicolasHaas/medscribe/pkg/view"
)

var vitalsColumns = []string{"Date", "Time", "BP", "Heart Rate", "Temp", "SpO2"}

// showPatient renders one patient record. The record id is carried by the
// closures below rather than stored on App.
func (a *App) showPatient(rec session.Record, patientID int64) {
	a.setDictationTarget(nil)

	title := boldLabel("Loading...")
	subtitle := widget.NewLabel("")
	membership := widget.NewLabel("")
	membership.Hide()
	headerErr := newErrorText()

	// --- Notes ---
	// set by the header, which always loads before the notes
	canWrite := false
	notesBox := container.NewVBox(widget.NewLabel("Loading..."))
	notes := listFunc[model.Note]{
		show: func(items []model.Note) {
			notesBox.RemoveAll()
			if len(items) == 0 {
				notesBox.Add(widget.NewLabel(view.EmptyNotesText(canWrite)))
				return
			}
			for _, card := range view.NoteCards(items, a.clock) {
				notesBox.Add(widget.NewCard("", card.Meta, wrapLabel(card.Text)))
			}
		},
		fail: func(msg string) {
			notesBox.RemoveAll()
			notesBox.Add(widget.NewLabel(msg))
		},
	}
	reloadNotes := func(ctx context.Context) error { return a.engine.LoadNotes(ctx, patientID, notes) }

	// --- Vitals ---
	var vitalsRows []view.VitalsRow
	vitalsMsg := widget.NewLabel("Loading...")
	table := widget.NewTable(
		func() (int, int) { return len(vitalsRows) + 1, len(vitalsColumns) },
		func() fyne.CanvasObject { return widget.NewLabel("000/000") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			l := obj.(*widget.Label)
			if id.Row == 0 {
				l.TextStyle = fyne.TextStyle{Bold: true}
				l.SetText(vitalsColumns[id.Col])
				return
			}
			l.TextStyle = fyne.TextStyle{}
			r := vitalsRows[id.Row-1]
			l.SetText([]string{r.Date, r.Time, r.BP, r.HeartRate, r.Temperature, r.SpO2}[id.Col])
		},
	)
	for i, w := range []float32{110, 90, 90, 100, 80, 70} {
		table.SetColumnWidth(i, w)
	}
	chartBox := container.NewVBox()
	vitals := listFunc[model.Vitals]{
		show: func(items []model.Vitals) {
			vitalsRows = view.VitalsRows(items, a.clock)
			if len(vitalsRows) == 0 {
				vitalsMsg.SetText(view.EmptyVitalsText)
				vitalsMsg.Show()
			} else {
				vitalsMsg.Hide()
			}
			table.Refresh()
			chartBox.RemoveAll()
			if len(items) > 0 {
				chartBox.Add(vitalsChart(view.VitalsSeries(items, a.clock)))
			}
		},
		fail: func(msg string) {
			vitalsRows = nil
			table.Refresh()
			chartBox.RemoveAll()
			vitalsMsg.SetText(msg)
			vitalsMsg.Show()
		},
	}
	reloadVitals := func(ctx context.Context) error { return a.engine.LoadVitals(ctx, patientID, vitals) }

	// --- Sharing ---
	sharesBox := container.NewVBox(widget.NewLabel("Loading..."))
	shareErr := newErrorText()
	var reloadShares func(ctx context.Context) error
	shares := listFunc[model.SharedAccess]{
		show: func(items []model.SharedAccess) {
			sharesBox.RemoveAll()
			list := view.Shares(items, rec.UserID)
			if list.Empty != "" {
				sharesBox.Add(widget.NewLabel(list.Empty))
				return
			}
			for _, row := range list.Rows {
				who := widget.NewLabel(fmt.Sprintf("%s (%s)", row.Name, row.Email))
				perm := widget.NewLabel(row.Permission)
				perm.Importance = widget.LowImportance
				line := container.NewHBox(widget.NewIcon(theme.AccountIcon()), who, perm, layout.NewSpacer())
				if row.CanRevoke {
					line.Add(widget.NewButtonWithIcon("Revoke", theme.DeleteIcon(), func() {
						a.confirmRevoke(patientID, row, inlineForm{err: shareErr}, reloadShares)
					}))
				}
				sharesBox.Add(line)
			}
		},
		fail: func(msg string) {
			sharesBox.RemoveAll()
			sharesBox.Add(widget.NewLabel(msg))
		},
	}
	reloadShares = func(ctx context.Context) error { return a.engine.LoadShares(ctx, patientID, shares) }

	// --- Actions ---
	addNoteBtn := widget.NewButtonWithIcon("Add Note", theme.DocumentCreateIcon(), func() {
		a.showNoteDialog(patientID, reloadNotes)
	})
	addVitalsBtn := widget.NewButtonWithIcon("Log Vitals", theme.ContentAddIcon(), func() {
		a.showVitalsDialog(patientID, reloadVitals)
	})
	addNoteBtn.Hide()
	addVitalsBtn.Hide()

	shareBtn := widget.NewButtonWithIcon("Share", theme.MailSendIcon(), func() {
		a.showShareDialog(patientID, reloadShares)
	})
	if !rbac.Can(rec.Role, rbac.PermSharePatient) {
		shareBtn.Hide()
	}
	reportBtn := widget.NewButtonWithIcon("Report", theme.DownloadIcon(), func() {
		a.showReportDialog(patientID)
	})
	if !rbac.Can(rec.Role, rbac.PermGenerateReport) {
		reportBtn.Hide()
	}
	activityBtn := widget.NewButtonWithIcon("Activity", theme.HistoryIcon(), func() { a.showActivityDialog(patientID) })

	header := objectFunc[model.PatientDetail]{
		show: func(p model.PatientDetail) {
			h := view.Header(p)
			title.SetText(h.Title)
			subtitle.SetText(h.Subtitle)
			if h.Membership != "" {
				membership.SetText(h.Membership)
				membership.Show()
			}
			canWrite = h.CanWrite
			if h.CanWrite {
				addNoteBtn.Show()
				addVitalsBtn.Show()
			}
		},
		fail: func(msg string) {
			title.SetText("")
			headerErr.set(msg)
		},
	}

	backBtn := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() { a.showDashboard(rec) })

	top := container.NewVBox(
		container.NewHBox(title, layout.NewSpacer(), addNoteBtn, addVitalsBtn, shareBtn, reportBtn, activityBtn),
		subtitle,
		membership,
		headerErr.Text,
	)
	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Notes", theme.DocumentIcon(), container.NewVScroll(notesBox)),
		container.NewTabItemWithIcon("Vitals", theme.ListIcon(),
			container.NewBorder(container.NewVBox(chartBox, vitalsMsg), nil, nil, nil, table)),
		container.NewTabItemWithIcon("Sharing", theme.AccountIcon(),
			container.NewBorder(shareErr.Text, nil, nil, nil, container.NewVScroll(sharesBox))),
	)
	a.window.SetContent(a.screen("Patient Record", []fyne.CanvasObject{backBtn}, container.NewBorder(top, nil, nil, nil, tabs)))

	go func() {
		if err := a.engine.LoadPatient(a.ctx, patientID, header); err != nil {
			return
		}
		_ = reloadNotes(a.ctx)
		_ = reloadVitals(a.ctx)
		_ = reloadShares(a.ctx)
	}()
}

func (a *App) confirmRevoke(patientID int64, row view.ShareRow, form inlineForm, reload func(ctx context.Context) error) {
	msg := fmt.Sprintf("Revoke %s's access to this patient?", row.Name)
	dialog.ShowConfirm("Revoke Access", msg, func(ok bool) {
		if !ok {
			return
		}
		go func() { _ = a.engine.Submitter().Revoke(a.ctx, form, patientID, row.UserID, reload) }()
	}, a.window)
}
