package ui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Loaders and submitters run on background goroutines; these adapters
// apply their results on the UI thread.

type listFunc[T any] struct {
	show func(items []T)
	fail func(msg string)
}

func (l listFunc[T]) ShowItems(items []T)  { fyne.Do(func() { l.show(items) }) }
func (l listFunc[T]) ShowError(msg string) { fyne.Do(func() { l.fail(msg) }) }

type objectFunc[T any] struct {
	show func(item T)
	fail func(msg string)
}

func (o objectFunc[T]) Show(item T)          { fyne.Do(func() { o.show(item) }) }
func (o objectFunc[T]) ShowError(msg string) { fyne.Do(func() { o.fail(msg) }) }

// errorText is an inline error line, hidden while empty.
type errorText struct {
	*canvas.Text
}

func newErrorText() errorText {
	t := canvas.NewText("", theme.Color(theme.ColorNameError))
	t.Hide()
	return errorText{t}
}

func (e errorText) set(msg string) {
	e.Text.Text = msg
	if msg == "" {
		e.Hide()
	} else {
		e.Show()
	}
	e.Refresh()
}

// inlineForm reports submission errors next to a control that has no dialog
// of its own, such as a revoke button.
type inlineForm struct {
	err errorText
}

func (f inlineForm) ClearError()          { fyne.Do(func() { f.err.set("") }) }
func (f inlineForm) ShowError(msg string) { fyne.Do(func() { f.err.set(msg) }) }
func (f inlineForm) Close()               {}
func (f inlineForm) Reset()               {}

// formDialog is a modal form that stays open until its submission succeeds.
type formDialog struct {
	d         dialog.Dialog
	err       errorText
	submitBtn *widget.Button
	reset     func()
	onClose   func()
}

func (f *formDialog) ClearError()          { fyne.Do(func() { f.err.set("") }) }
func (f *formDialog) ShowError(msg string) { fyne.Do(func() { f.err.set(msg) }) }
func (f *formDialog) Close()               { fyne.Do(f.d.Hide) }

func (f *formDialog) Reset() {
	if f.reset != nil {
		fyne.Do(f.reset)
	}
}

// newFormDialog builds a dialog around content. On submit, prepare reads the
// fields on the UI thread and returns the work to run on a background
// goroutine; the button is disabled while it is in flight.
func (a *App) newFormDialog(title, submitLabel string, content fyne.CanvasObject, prepare func(f *formDialog) func(ctx context.Context)) *formDialog {
	f := &formDialog{err: newErrorText()}

	f.submitBtn = widget.NewButton(submitLabel, func() {
		work := prepare(f)
		f.submitBtn.Disable()
		go func() {
			work(a.ctx)
			fyne.Do(f.submitBtn.Enable)
		}()
	})
	f.submitBtn.Importance = widget.HighImportance
	cancelBtn := widget.NewButton("Cancel", func() { f.d.Hide() })

	body := container.NewVBox(
		content,
		f.err.Text,
		container.NewHBox(layout.NewSpacer(), cancelBtn, f.submitBtn),
	)
	f.d = dialog.NewCustomWithoutButtons(title, body, a.window)
	f.d.SetOnClosed(func() {
		if f.onClose != nil {
			f.onClose()
		}
	})
	return f
}

func boldLabel(text string) *widget.Label {
	return widget.NewLabelWithStyle(text, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
}

func wrapLabel(text string) *widget.Label {
	l := widget.NewLabel(text)
	l.Wrapping = fyne.TextWrapWord
	return l
}
