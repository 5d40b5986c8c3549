// Package script publishes events for the soft-skip and script-fault error
// classes: a misbehaving hook or action is logged and bypassed, never fatal.
package script

import (
	"context"

	"thingforge/server/logging"
)

const (
	// EventFault is emitted when a hook or action panics and is skipped.
	EventFault logging.EventType = "script.fault"
	// EventSoftSkip is emitted for missing lookups, malformed settings, and
	// degenerate geometry that the engine bypasses.
	EventSoftSkip logging.EventType = "script.soft_skip"
)

// FaultPayload captures where a script blew up.
type FaultPayload struct {
	Phase string `json:"phase"`
	Error string `json:"error"`
}

// SoftSkipPayload captures what was bypassed and why.
type SoftSkipPayload struct {
	Where  string `json:"where"`
	Reason string `json:"reason"`
}

// Fault publishes a recovered script panic.
func Fault(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FaultPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFault,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: logging.CategoryScript,
		Payload:  payload,
		Extra:    extra,
	})
}

// SoftSkip publishes a bypassed lookup or degenerate input.
func SoftSkip(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SoftSkipPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSoftSkip,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryScript,
		Payload:  payload,
		Extra:    extra,
	})
}
