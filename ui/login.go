package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/NicolasHaas/medscribe/pkg/client"
)

const newServerLabel = "(New Server)"

func (a *App) showLogin() {
	a.setDictationTarget(nil)

	serverEntry := widget.NewEntry()
	serverEntry.SetPlaceHolder(client.DefaultSettings().ServerURL)
	serverEntry.SetText(a.settings.ServerURL)

	emailEntry := widget.NewEntry()
	emailEntry.SetPlaceHolder("you@clinic.in")
	passwordEntry := widget.NewPasswordEntry()
	passwordEntry.SetPlaceHolder("Password")

	errText := canvas.NewText("", theme.Color(theme.ColorNameError))
	errText.Hide()

	profiles := a.profiles.Recent()
	labelToProfile := make(map[string]client.ServerProfile, len(profiles))
	names := []string{newServerLabel}
	for _, p := range profiles {
		label := fmt.Sprintf("%s (%s)", p.Name, p.BaseURL)
		names = append(names, label)
		labelToProfile[label] = p
	}
	savedSelect := widget.NewSelect(names, func(selected string) {
		if p, ok := labelToProfile[selected]; ok {
			serverEntry.SetText(p.BaseURL)
			emailEntry.SetText(p.LastEmail)
			return
		}
		serverEntry.SetText(a.settings.ServerURL)
	})
	if len(profiles) > 0 {
		savedSelect.SetSelected(names[1])
	} else {
		savedSelect.SetSelected(newServerLabel)
	}

	var signInBtn *widget.Button
	submit := func() {
		errText.Hide()
		server := strings.TrimSpace(serverEntry.Text)
		email := strings.TrimSpace(emailEntry.Text)
		password := passwordEntry.Text
		signInBtn.Disable()

		go func() {
			if err := a.engine.SetServer(server); err != nil {
				fyne.Do(func() {
					signInBtn.Enable()
					errText.Text = "Enter a valid server address (http:// or https://)"
					errText.Show()
					errText.Refresh()
				})
				return
			}
			rec, err := a.engine.Login(a.ctx, email, password)
			fyne.Do(func() {
				signInBtn.Enable()
				if err != nil {
					errText.Text = client.LoginMessage(err)
					errText.Show()
					errText.Refresh()
					return
				}
				a.rememberServer(server, email)
				a.showDashboard(rec)
			})
		}()
	}
	signInBtn = widget.NewButtonWithIcon("Sign In", theme.LoginIcon(), submit)
	signInBtn.Importance = widget.HighImportance
	passwordEntry.OnSubmitted = func(string) { submit() }

	form := container.NewVBox(
		widget.NewLabelWithStyle("Sign in to medscribe", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		widget.NewLabel("Saved"),
		savedSelect,
		widget.NewLabel("Server"),
		serverEntry,
		widget.NewSeparator(),
		widget.NewLabel("Email"),
		emailEntry,
		widget.NewLabel("Password"),
		passwordEntry,
		errText,
		signInBtn,
	)
	a.window.SetContent(a.screen("Login", nil, container.NewCenter(container.NewGridWrap(fyne.NewSize(380, 460), form))))
	a.window.Canvas().Focus(emailEntry)
}

func (a *App) rememberServer(server, email string) {
	a.profiles.Add(client.ServerProfile{BaseURL: server, LastEmail: email})
	a.profiles.Touch(server, email, time.Now().Unix())
	if err := a.profiles.Save(); err != nil {
		slog.Error("save server profiles", "err", err)
	}
	if a.settings.ServerURL != server {
		a.settings.ServerURL = server
		if err := a.settings.Save(); err != nil {
			slog.Error("save settings", "err", err)
		}
	}
}
