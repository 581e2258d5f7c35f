package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventAccess        EventType = "access"
	EventIdle          EventType = "idle"
	EventRecord        EventType = "record"
	EventSplit         EventType = "split"
	EventScenarioStart EventType = "scenario_start"
	EventScenarioEnd   EventType = "scenario_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Cycle     uint64    `json:"cycle"`
}

// AccessEvent reports one completed control-plane access.
type AccessEvent struct {
	EventBase
	Sequence string         `json:"sequence"`
	Request  AccessRequest  `json:"request"`
	Response AccessResponse `json:"response"`
}

// IdleEvent reports an idle gap inserted by a sequence.
type IdleEvent struct {
	EventBase
	Sequence string `json:"sequence"`
	Cycles   uint64 `json:"cycles"`
}

// RecordEvent reports a record published by the bridge.
type RecordEvent struct {
	EventBase
	Stream string             `json:"stream"`
	Record *TransactionRecord `json:"record"`
}

// SplitEvent reports a predicted split.
type SplitEvent struct {
	EventBase
	Stream     string          `json:"stream"`
	Descriptor SplitDescriptor `json:"descriptor"`
}

// ScenarioEvent reports the start or the end of a scenario.
type ScenarioEvent struct {
	EventBase
	Scenario  string   `json:"scenario"`
	Sequences []string `json:"sequences"`
	Err       error    `json:"-"`
}

// LifecycleHooks defines callbacks for environment observability.
// Every hook is optional.
type LifecycleHooks struct {
	OnAccess        func(context.Context, *AccessEvent)
	OnIdle          func(context.Context, *IdleEvent)
	OnRecord        func(context.Context, *RecordEvent)
	OnSplit         func(context.Context, *SplitEvent)
	OnScenarioStart func(context.Context, *ScenarioEvent)
	OnScenarioEnd   func(context.Context, *ScenarioEvent)
}

// Merge returns hooks that call h first and then other, for every hook either sets.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnAccess:        chain(h.OnAccess, other.OnAccess),
		OnIdle:          chain(h.OnIdle, other.OnIdle),
		OnRecord:        chain(h.OnRecord, other.OnRecord),
		OnSplit:         chain(h.OnSplit, other.OnSplit),
		OnScenarioStart: chain(h.OnScenarioStart, other.OnScenarioStart),
		OnScenarioEnd:   chain(h.OnScenarioEnd, other.OnScenarioEnd),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
