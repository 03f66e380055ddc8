package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a native module is currently halted. It doubles as
// the one-at-a-time execution latch around state-mutating entry points: while a
// call is in flight the module reads as paused to any re-entrant caller.
type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
