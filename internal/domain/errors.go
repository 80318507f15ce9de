// Package domain contains the activity accounting core of Speaking Eye.
// It turns window focus spans into finished activities, classifies them,
// splits them on calendar days, converts them to and from the persisted
// line format and folds them into per-title statistics.
// Nothing in this package performs I/O.
package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps one of them.
var (
	ErrValidation    = errors.New("validation error")
	ErrFormat        = errors.New("format error")
	ErrConfiguration = errors.New("configuration error")
	ErrLookup        = errors.New("lookup error")
)

// Reserved window classes and titles.
const (
	WmClassLockScreen = "LockScreen"
	WmClassDesktop    = "Desktop"
	TitleOthers       = "Others"
	TitleBreakTime    = "Break Time"
)

// MissingTitleError reports a title that has no statistics bucket.
type MissingTitleError struct {
	Title string
}

func (e *MissingTitleError) Error() string {
	return fmt.Sprintf("%v: title %q not found", ErrLookup, e.Title)
}

// Unwrap makes errors.Is(err, ErrLookup) hold.
func (e *MissingTitleError) Unwrap() error {
	return ErrLookup
}
