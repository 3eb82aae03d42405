package view

import (
	"strings"

	"github.com/NicolasHaas/medscribe/pkg/model"
)

// NotSharedText is shown when a record has no grants.
const NotSharedText = "Not shared with anyone"

// ShareRow is one grant in the sharing panel.
type ShareRow struct {
	UserID     int64
	Name       string
	Email      string
	Permission string
	CanRevoke  bool // only the granting user may revoke
}

// ShareList is the rendered sharing panel. Empty is set, and Rows is nil,
// when nothing is shared.
type ShareList struct {
	Empty string
	Rows  []ShareRow
}

// Shares renders the grants on a record as seen by user me.
func Shares(items []model.SharedAccess, me int64) ShareList {
	if len(items) == 0 {
		return ShareList{Empty: NotSharedText}
	}
	rows := make([]ShareRow, 0, len(items))
	for _, a := range items {
		rows = append(rows, ShareRow{
			UserID:     a.UserID,
			Name:       a.UserName,
			Email:      a.UserEmail,
			Permission: strings.ToLower(string(a.Permission)),
			CanRevoke:  a.GrantedBy == me,
		})
	}
	return ShareList{Rows: rows}
}
