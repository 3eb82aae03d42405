// Package ui provides the Fyne-based desktop client for medscribe.
package ui

import (
	"context"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/NicolasHaas/medscribe/pkg/audio"
	"github.com/NicolasHaas/medscribe/pkg/audit"
	"github.com/NicolasHaas/medscribe/pkg/client"
	"github.com/NicolasHaas/medscribe/pkg/session"
	"github.com/NicolasHaas/medscribe/pkg/version"
	"github.com/NicolasHaas/medscribe/pkg/view"
)

// App is the main GUI application.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	engine  *client.Engine

	settings *client.Settings
	profiles *client.ProfileStore
	auditLog *audit.Log
	hotkey   *client.DictationHotkey
	clock    view.Clock

	// ctx is cancelled when the window closes, aborting in-flight requests
	// and uploads.
	ctx    context.Context
	cancel context.CancelFunc

	// dictate toggles recording in the open note dialog, if any.
	dictateMu sync.Mutex
	dictate   func()
}

// NewApp creates the desktop application.
func NewApp() (*App, error) {
	// Start PortAudio init in background so it's ready by the time the user dictates
	audio.PreInitAudio()

	settings := client.LoadSettings()
	a := &App{
		fyneApp:  app.NewWithID("in.medscribe.client"),
		settings: settings,
		profiles: client.NewProfileStore(),
		hotkey:   client.NewDictationHotkey(settings.DictateKey),
		clock:    settings.Clock(),
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	if err := a.profiles.Load(); err != nil {
		slog.Warn("load server profiles", "err", err)
	}

	cfg := client.Config{
		Settings:  settings,
		Sessions:  session.NewManager(session.NewFileStore(client.SessionPath())),
		Navigator: client.NavigatorFunc(a.toLogin),
	}
	if auditLog, err := audit.Open(settings.AuditPath()); err != nil {
		slog.Warn("audit trail unavailable", "path", settings.AuditPath(), "err", err)
	} else {
		a.auditLog = auditLog
		cfg.Audit = auditLog
	}

	engine, err := client.NewEngine(cfg)
	if err != nil {
		a.cancel()
		return nil, err
	}
	a.engine = engine

	a.window = a.fyneApp.NewWindow("medscribe")
	a.window.Resize(fyne.NewSize(960, 680))
	a.window.SetMaster()
	return a, nil
}

// Run starts the GUI application (blocks).
func (a *App) Run() {
	a.hotkey.OnToggle = func() {
		fyne.Do(func() {
			a.dictateMu.Lock()
			fn := a.dictate
			a.dictateMu.Unlock()
			if fn != nil {
				fn()
			}
		})
	}
	a.hotkey.Start()
	a.window.SetCloseIntercept(func() {
		a.cancel()
		a.hotkey.Stop()
		if a.auditLog != nil {
			if err := a.auditLog.Close(); err != nil {
				slog.Error("close audit log", "err", err)
			}
		}
		a.fyneApp.Quit()
	})

	if rec, err := a.engine.Guard(); err == nil {
		a.showDashboard(rec)
	}
	a.window.ShowAndRun()
}

// toLogin is the engine's navigator. It may be called from any goroutine.
func (a *App) toLogin() {
	fyne.Do(a.showLogin)
}

func (a *App) setDictationTarget(fn func()) {
	a.dictateMu.Lock()
	a.dictate = fn
	a.dictateMu.Unlock()
}

// screen wraps content with the shared toolbar.
func (a *App) screen(title string, left []fyne.CanvasObject, body fyne.CanvasObject) fyne.CanvasObject {
	heading := widget.NewLabelWithStyle(title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), a.showSettingsDialog)
	versionLabel := widget.NewLabel(version.String())
	versionLabel.TextStyle = fyne.TextStyle{Italic: true}
	versionLabel.Importance = widget.LowImportance

	items := append([]fyne.CanvasObject{}, left...)
	items = append(items, heading, layout.NewSpacer(), versionLabel, settingsBtn)
	toolbar := container.NewHBox(items...)
	return container.NewBorder(container.NewVBox(toolbar, widget.NewSeparator()), nil, nil, nil, body)
}

func (a *App) showSettingsDialog() {
	inputDevices, _ := audio.ListInputDevices()
	inputNames := make([]string, 0, len(inputDevices)+1)
	inputNames = append(inputNames, "(Default)")
	for _, d := range inputDevices {
		inputNames = append(inputNames, d.Name)
	}
	inputSelect := widget.NewSelect(inputNames, nil)
	if a.settings.AudioInput != "" {
		inputSelect.SetSelected(a.settings.AudioInput)
	} else {
		inputSelect.SetSelected("(Default)")
	}

	formatOptions := []string{"Opus (smaller uploads)", "WAV only"}
	formatSelect := widget.NewSelect(formatOptions, nil)
	if prefs := a.settings.FormatPreference(); len(prefs) > 0 && prefs[0] == audio.WAV.MIMEType {
		formatSelect.SetSelected(formatOptions[1])
	} else {
		formatSelect.SetSelected(formatOptions[0])
	}

	zoneEntry := widget.NewEntry()
	zoneEntry.SetText(a.settings.DisplayZone)
	zoneEntry.SetPlaceHolder(view.DefaultZone)

	keyOptions := []string{"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12"}
	keySelect := widget.NewSelect(keyOptions, nil)
	keySelect.SetSelected(a.settings.DictateKey)

	content := container.NewVBox(
		widget.NewLabelWithStyle("Dictation", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		widget.NewLabel("Input Device:"),
		inputSelect,
		widget.NewLabel("Recording Format:"),
		formatSelect,
		container.NewHBox(widget.NewLabel("Dictation hotkey (Windows):"), keySelect),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Display", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Time zone:"),
		zoneEntry,
	)

	d := dialog.NewCustomConfirm("Settings", "Apply", "Cancel", content,
		func(ok bool) {
			if !ok {
				return
			}
			if inputSelect.Selected != "(Default)" {
				a.settings.AudioInput = inputSelect.Selected
			} else {
				a.settings.AudioInput = ""
			}
			if formatSelect.Selected == formatOptions[1] {
				a.settings.AudioFormats = []string{audio.WAV.MIMEType}
			} else {
				a.settings.AudioFormats = nil
			}
			a.settings.DictateKey = keySelect.Selected
			if zone := zoneEntry.Text; zone != "" {
				if _, err := view.NewClock(zone); err != nil {
					dialog.ShowError(err, a.window)
					return
				}
				a.settings.DisplayZone = zone
			}
			a.clock = a.settings.Clock()

			if err := a.settings.Save(); err != nil {
				slog.Error("save settings", "err", err)
			}
			a.hotkey.SetKey(a.settings.DictateKey)

			dialog.ShowInformation("Settings", "Settings saved. Device changes apply to the next recording.", a.window)
		}, a.window)
	d.Resize(fyne.NewSize(450, 480))
	d.Show()
}
