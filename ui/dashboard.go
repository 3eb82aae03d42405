package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/NicolasHaas/medscribe/pkg/model"
	"github.com/NicolasHaas/medscribe/pkg/rbac"
	"github.com/NicolasHaas/medscribe/pkg/session"
	"github.com/NicolasHaas/medscribe/pkg/view"
)

func (a *App) showDashboard(rec session.Record) {
	a.setDictationTarget(nil)

	var (
		rows  []view.PatientRow
		query string
	)
	message := widget.NewLabel("Loading...")
	message.Alignment = fyne.TextAlignCenter

	list := widget.NewList(
		func() int { return len(rows) },
		func() fyne.CanvasObject {
			name := widget.NewLabelWithStyle("Patient name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
			phone := widget.NewLabel("phone")
			phone.Importance = widget.LowImportance
			badge := widget.NewLabel("Shared")
			badge.Importance = widget.WarningImportance
			badge.Hide()
			return container.NewHBox(widget.NewIcon(theme.AccountIcon()), name, phone, layout.NewSpacer(), badge)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(rows) {
				return
			}
			row := rows[id]
			box := obj.(*fyne.Container)
			box.Objects[1].(*widget.Label).SetText(row.Name)
			box.Objects[2].(*widget.Label).SetText(row.Phone)
			badge := box.Objects[4].(*widget.Label)
			if row.Shared {
				badge.Show()
			} else {
				badge.Hide()
			}
		},
	)
	list.OnSelected = func(id widget.ListItemID) {
		list.Unselect(id)
		if id < len(rows) {
			a.showPatient(rec, rows[id].ID)
		}
	}

	patients := listFunc[model.Patient]{
		show: func(items []model.Patient) {
			rows = view.PatientRows(items, rec.UserID)
			switch {
			case len(rows) > 0:
				message.Hide()
			case query != "":
				message.SetText(view.EmptySearchText(query))
				message.Show()
			default:
				message.SetText(view.EmptyPatientsText(rec.Role))
				message.Show()
			}
			list.Refresh()
		},
		fail: func(msg string) {
			rows = nil
			list.Refresh()
			message.SetText(msg)
			message.Show()
		},
	}
	load := func(q string) {
		query = q
		go func() { _ = a.engine.SearchPatients(a.ctx, q, patients) }()
	}

	searchEntry := widget.NewEntry()
	searchEntry.SetPlaceHolder("Search by name or phone")
	searchEntry.OnSubmitted = load
	searchBtn := widget.NewButtonWithIcon("", theme.SearchIcon(), func() { load(searchEntry.Text) })
	clearBtn := widget.NewButtonWithIcon("", theme.CancelIcon(), func() {
		searchEntry.SetText("")
		load("")
	})

	addBtn := widget.NewButtonWithIcon("Add Patient", theme.ContentAddIcon(), func() {
		a.showAddPatientDialog(func() { load(searchEntry.Text) })
	})
	addBtn.Importance = widget.HighImportance
	if !rbac.Can(rec.Role, rbac.PermRegisterPatient) {
		addBtn.Hide()
	}

	activityBtn := widget.NewButtonWithIcon("Activity", theme.HistoryIcon(), func() { a.showActivityDialog(0) })
	logoutBtn := widget.NewButtonWithIcon("Logout", theme.LogoutIcon(), func() {
		go func() { _ = a.engine.Logout(a.ctx) }()
	})

	welcome := widget.NewLabelWithStyle(view.Welcome(rec.UserName, rec.Role), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	roleLabel := widget.NewLabel(rec.Role.String())
	roleLabel.Importance = widget.LowImportance

	top := container.NewVBox(
		container.NewHBox(welcome, roleLabel, layout.NewSpacer(), addBtn),
		container.NewBorder(nil, nil, nil, container.NewHBox(searchBtn, clearBtn), searchEntry),
	)
	body := container.NewBorder(top, message, nil, nil, list)
	a.window.SetContent(a.screen("Patients", []fyne.CanvasObject{logoutBtn, activityBtn}, body))

	load("")
}
