package infoboard

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrDuplicateModule = errors.New("infoboard: duplicate module name")
	ErrNoModules       = errors.New("infoboard: no modules registered")
)

// FetchError wraps a failed module refresh. The board recovers locally: the
// module keeps its cached data and degrades to a placeholder once stale.
type FetchError struct {
	Module string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Module, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// RenderError wraps a failed module render. The board substitutes a blank
// frame for that tick and continues.
type RenderError struct {
	Module string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Module, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
