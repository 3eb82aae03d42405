package ui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/NicolasHaas/medscribe/pkg/audit"
)

// showActivityDialog lists recent audit entries, for one patient when
// patientID is set.
func (a *App) showActivityDialog(patientID int64) {
	if a.auditLog == nil {
		dialog.ShowInformation("Activity", "The local activity log is not available.", a.window)
		return
	}

	var entries []audit.Entry
	list := widget.NewList(
		func() int { return len(entries) },
		func() fyne.CanvasObject { return widget.NewLabel("2 Jan 2006, 03:04 pm  note_created  patient 000") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			e := entries[id]
			line := fmt.Sprintf("%s, %s  %s", a.clock.Date(e.CreatedAt), a.clock.Time(e.CreatedAt), e.Event.Kind)
			if e.Event.PatientID > 0 {
				line += fmt.Sprintf("  patient %d", e.Event.PatientID)
			}
			if e.Event.Outcome != audit.OutcomeOK {
				line += "  (" + e.Event.Outcome + ")"
			}
			obj.(*widget.Label).SetText(line)
		},
	)
	status := widget.NewLabel("Loading...")

	verifyBtn := widget.NewButton("Verify integrity", func() {
		go func() {
			err := a.auditLog.Verify(a.ctx)
			fyne.Do(func() {
				switch {
				case err == nil:
					status.SetText("Activity log verified: no entries altered.")
				case errors.Is(err, audit.ErrTampered):
					status.SetText("Activity log has been altered: " + err.Error())
				default:
					status.SetText("Could not verify the activity log.")
				}
			})
		}()
	})

	title := "Recent Activity"
	if patientID > 0 {
		title = fmt.Sprintf("Activity for patient %d", patientID)
	}
	d := dialog.NewCustom(title, "Close", container.NewBorder(nil, container.NewVBox(status, verifyBtn), nil, nil, list), a.window)
	d.Resize(fyne.NewSize(560, 480))
	d.Show()

	go func() {
		got, err := a.auditLog.List(a.ctx, audit.Filter{PatientID: patientID, Limit: 200})
		fyne.Do(func() {
			if err != nil {
				status.SetText("Could not read the activity log.")
				return
			}
			entries = got
			status.SetText(fmt.Sprintf("%d entries", len(entries)))
			list.Refresh()
		})
	}()
}
