// Package notify delivers alarm notifications through two channels: a ready
// background worker when one controls delivery, or a direct notification as
// the degraded fallback. Foreground deliveries additionally sound the
// audible alarm.
package notify

import "context"

// PermissionState is the platform-owned notification permission.
type PermissionState string

// Permission states. Only the platform prompt transitions them, and granted
// and denied are terminal; the system only ever reads the state back.
const (
	PermissionUnset   PermissionState = "unset"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// Prompter exposes the platform permission state and its one productive
// prompt.
type Prompter interface {
	// State reads the current permission state.
	State() PermissionState
	// Request asks the user for permission. Terminal states are returned
	// as-is; only unset can transition, and only through the platform UI.
	Request(ctx context.Context) (PermissionState, error)
}

// StaticPrompter is a Prompter pinned to a fixed state. Headless daemon
// deployments run with granted; tests use all three.
type StaticPrompter struct {
	Current PermissionState
}

// State returns the pinned state.
func (p *StaticPrompter) State() PermissionState {
	return p.Current
}

// Request resolves the prompt per the terminal-state rule: unset becomes
// granted (the static prompter stands in for a user who accepts), granted
// and denied stay put.
func (p *StaticPrompter) Request(ctx context.Context) (PermissionState, error) {
	if p.Current == PermissionUnset {
		p.Current = PermissionGranted
	}
	return p.Current, nil
}
