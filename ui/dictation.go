package ui

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/client"
	"github.com/NicolasHaas/medscribe/pkg/model"
	"github.com/NicolasHaas/medscribe/pkg/recorder"
)

const (
	autoFillIndicator = 2 * time.Second
	// meterFullScale is the RMS shown as a full meter; speech sits well
	// below int16 full scale.
	meterFullScale = 8000.0
)

func (a *App) showNoteDialog(patientID int64, reload func(ctx context.Context) error) {
	notesEntry := widget.NewMultiLineEntry()
	notesEntry.SetPlaceHolder("Type notes, or press Record to dictate")
	notesEntry.SetMinRowsVisible(8)
	notesEntry.Wrapping = fyne.TextWrapWord

	soap := map[string]*widget.Entry{}
	soapForm := widget.NewForm()
	for _, name := range []string{"Chief complaint", "Subjective", "Objective", "Assessment", "Plan"} {
		e := widget.NewMultiLineEntry()
		e.SetMinRowsVisible(2)
		soap[name] = e
		soapForm.Append(name, e)
	}
	structured := widget.NewAccordion(widget.NewAccordionItem("Structured (SOAP)", soapForm))

	status := widget.NewLabel("")
	status.Wrapping = fyne.TextWrapWord
	meter := widget.NewProgressBar()
	meter.Min, meter.Max = 0, 1
	meter.TextFormatter = func() string { return "" }
	meter.Hide()
	autoFilled := widget.NewLabelWithStyle("✓ Auto-filled from dictation", fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
	autoFilled.Importance = widget.SuccessImportance
	autoFilled.Hide()

	rec := a.engine.NewRecorder()
	rec.OnStatus = func(text string) { fyne.Do(func() { status.SetText(text) }) }
	rec.OnLevel = func(rms float64) {
		fyne.Do(func() { meter.SetValue(math.Min(rms/meterFullScale, 1)) })
	}
	rec.OnCaptureError = func(err error) {
		fyne.Do(func() { status.SetText(recorder.Message(err)) })
	}

	var (
		recordBtn *widget.Button
		busy      bool
	)
	setIdle := func() {
		recordBtn.SetText("Record")
		recordBtn.SetIcon(theme.MediaRecordIcon())
		recordBtn.Importance = widget.MediumImportance
		recordBtn.Refresh()
		meter.Hide()
	}
	toggle := func() {
		if busy {
			return
		}
		busy = true
		recordBtn.Disable()

		if rec.State() == recorder.Idle {
			go func() {
				err := rec.Start(a.ctx)
				fyne.Do(func() {
					busy = false
					recordBtn.Enable()
					if err != nil {
						status.SetText(recorder.Message(err))
						return
					}
					recordBtn.SetText("Stop")
					recordBtn.SetIcon(theme.MediaStopIcon())
					recordBtn.Importance = widget.DangerImportance
					recordBtn.Refresh()
					meter.SetValue(0)
					meter.Show()
				})
			}()
			return
		}

		meter.Hide()
		go func() {
			text, err := rec.Stop(a.ctx)
			fyne.Do(func() {
				busy = false
				recordBtn.Enable()
				setIdle()
				if err != nil {
					if !errors.Is(err, api.ErrUnauthorized) {
						status.SetText(recorder.Message(err))
					}
					return
				}
				if current := strings.TrimSpace(notesEntry.Text); current != "" {
					text = current + "\n" + text
				}
				notesEntry.SetText(text)
				autoFilled.Show()
				time.AfterFunc(autoFillIndicator, func() { fyne.Do(autoFilled.Hide) })
			})
		}()
	}
	recordBtn = widget.NewButtonWithIcon("Record", theme.MediaRecordIcon(), toggle)

	content := container.NewVBox(
		widget.NewLabel("Notes"),
		notesEntry,
		autoFilled,
		container.NewBorder(nil, nil, recordBtn, nil, meter),
		status,
		structured,
	)

	f := a.newFormDialog("Add Note", "Save", content, func(f *formDialog) func(context.Context) {
		req := model.NoteRequest{
			PatientID:      patientID,
			RawNotes:       strings.TrimSpace(notesEntry.Text),
			ChiefComplaint: client.OptionalText(soap["Chief complaint"].Text),
			Subjective:     client.OptionalText(soap["Subjective"].Text),
			Objective:      client.OptionalText(soap["Objective"].Text),
			Assessment:     client.OptionalText(soap["Assessment"].Text),
			Plan:           client.OptionalText(soap["Plan"].Text),
		}
		return func(ctx context.Context) { _ = a.engine.Submitter().AddNote(ctx, f, req, reload) }
	})
	f.reset = func() {
		notesEntry.SetText("")
		for _, e := range soap {
			e.SetText("")
		}
		status.SetText("")
	}
	f.onClose = func() {
		a.setDictationTarget(nil)
		if rec.State() == recorder.Recording {
			// release the microphone without uploading
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			go func() { _, _ = rec.Stop(ctx) }()
		}
	}
	a.setDictationTarget(toggle)

	f.d.Resize(fyne.NewSize(560, 560))
	f.d.Show()
}
