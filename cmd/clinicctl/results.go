package main

import (
	"errors"
)

// listResult captures what a loader rendered.
type listResult[T any] struct {
	items []T
	msg   string
}

func (r *listResult[T]) ShowItems(items []T) { r.items = items }
func (r *listResult[T]) ShowError(msg string) { r.msg = msg }

// objectResult captures what a single-object loader rendered.
type objectResult[T any] struct {
	item T
	msg  string
}

func (r *objectResult[T]) Show(item T)          { r.item = item }
func (r *objectResult[T]) ShowError(msg string) { r.msg = msg }

// formResult stands in for a dialog: the inline error becomes the
// command's error.
type formResult struct {
	msg    string
	closed bool
}

func (f *formResult) ClearError()          { f.msg = "" }
func (f *formResult) ShowError(msg string) { f.msg = msg }
func (f *formResult) Close()               { f.closed = true }
func (f *formResult) Reset()               {}

// outcome prefers the message the user would have seen over the raw error.
func outcome(err error, msg string) error {
	if err == nil {
		return nil
	}
	if msg != "" {
		return errors.New(msg)
	}
	return err
}
