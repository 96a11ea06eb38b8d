// Package demoadapter seeds an in-memory platform.Adapter so allio's
// binaries have something to serve without a real OS accessibility
// backend wired in: that backend is built per-OS outside this repo, and
// the mock adapter is the only concrete one available here.
package demoadapter

import (
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/platform/mock"
	"github.com/watchcask/allio/pkg/allio/role"
	"github.com/watchcask/allio/pkg/allio/types"
)

// New builds a mock adapter with one window holding a button, a text
// field, and a one-item list.
func New() *mock.Adapter {
	adapter := mock.New()

	window := mock.NewHandle(1, "window")
	okButton := mock.NewHandle(1, "ok-button")
	nameField := mock.NewHandle(1, "name-field")
	list := mock.NewHandle(1, "list")
	listItem := mock.NewHandle(1, "list-item-1")

	adapter.Windows = []types.Window{{
		ID:        1,
		Title:     "Demo Window",
		AppName:   "allio",
		ProcessID: 1,
	}}
	adapter.WindowHandles[1] = window

	adapter.AddNode(&mock.Node{
		Handle:   window,
		Attrs:    platform.ElementAttributes{Role: role.Window},
		Children: []mock.Handle{okButton, nameField, list},
	})

	okLabel := "OK"
	adapter.AddNode(&mock.Node{
		Handle: okButton,
		Attrs: platform.ElementAttributes{
			Role:    role.Button,
			Title:   &okLabel,
			Actions: []types.Action{types.ActionPress},
		},
		Parent: &window,
	})

	nameLabel := "Name"
	nameValue := types.StringValue("")
	adapter.AddNode(&mock.Node{
		Handle: nameField,
		Attrs: platform.ElementAttributes{
			Role:  role.TextField,
			Title: &nameLabel,
			Value: &nameValue,
		},
		Parent: &window,
	})

	adapter.AddNode(&mock.Node{
		Handle:   list,
		Attrs:    platform.ElementAttributes{Role: role.List},
		Children: []mock.Handle{listItem},
		Parent:   &window,
	})

	itemLabel := "Item one"
	adapter.AddNode(&mock.Node{
		Handle: listItem,
		Attrs: platform.ElementAttributes{
			Role:  role.ListItem,
			Title: &itemLabel,
		},
		Parent: &list,
	})

	return adapter
}
