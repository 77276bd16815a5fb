// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package recommend

import "time"

// Action is the action ultimately taken on a shown recommendation.
type Action string

const (
	ActionShown       Action = "shown"
	ActionSkipped     Action = "skipped"
	ActionOpened      Action = "opened"
	ActionWatched     Action = "watched"
	ActionAddedToList Action = "added_to_list"
)

// Valid reports whether the action is known.
func (a Action) Valid() bool {
	switch a {
	case ActionShown, ActionSkipped, ActionOpened, ActionWatched, ActionAddedToList:
		return true
	default:
		return false
	}
}

// LogEntry records one recommendation shown to a user.
type LogEntry struct {
	// ID is a UUID assigned at serving time.
	ID string `json:"id"`

	UserID    int64      `json:"user_id"`
	Key       ContentKey `json:"key"`
	Title     string     `json:"title"`
	Algorithm string     `json:"algorithm"`
	Score     float64    `json:"score"`

	// Action starts as ActionShown and is overwritten once.
	Action Action `json:"action"`

	Context LogContext `json:"context,omitempty"`
	ShownAt time.Time  `json:"shown_at"`
}

// EventType classifies an outcome event.
type EventType string

const (
	EventAdded   EventType = "added"
	EventRated   EventType = "rated"
	EventIgnored EventType = "ignored"
	EventDropped EventType = "dropped"
	EventHidden  EventType = "hidden"
)

// EventTypes lists all outcome event types.
var EventTypes = []EventType{EventAdded, EventRated, EventIgnored, EventDropped, EventHidden}

// Valid reports whether the event type is known.
func (e EventType) Valid() bool {
	for _, t := range EventTypes {
		if t == e {
			return true
		}
	}
	return false
}

// Positive reports whether the event counts as an acceptance.
func (e EventType) Positive() bool {
	return e == EventAdded || e == EventRated
}

// Negative reports whether the event counts against the algorithm.
func (e EventType) Negative() bool {
	return e == EventDropped || e == EventHidden
}

// LogAction maps an outcome onto the parent log entry's action.
// The second return is false when the event does not change the action.
func (e EventType) LogAction() (Action, bool) {
	switch e {
	case EventAdded:
		return ActionAddedToList, true
	case EventIgnored:
		return ActionSkipped, true
	default:
		return "", false
	}
}

// Event is one outcome tied to a LogEntry. Events are append-only.
type Event struct {
	ID        string    `json:"id"`
	LogID     string    `json:"log_id"`
	Type      EventType `json:"type"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DateRange bounds a query by shown time. Zero bounds are open.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// OutcomeQuery scopes outcome aggregation.
type OutcomeQuery struct {
	// UserID limits to one user. Zero means all users.
	UserID int64

	// Algorithm limits to one algorithm. Empty means all.
	Algorithm string

	Range *DateRange
}

// AlgorithmOutcomes holds raw outcome counts for one algorithm.
type AlgorithmOutcomes struct {
	Algorithm string `json:"algorithm"`
	Shown     int    `json:"shown"`
	Added     int    `json:"added"`
	Rated     int    `json:"rated"`
	Ignored   int    `json:"ignored"`
	Dropped   int    `json:"dropped"`
	Hidden    int    `json:"hidden"`
}

// Accepted is the number of positive outcomes.
func (o AlgorithmOutcomes) Accepted() int { return o.Added + o.Rated }

// Negative is the number of negative outcomes.
func (o AlgorithmOutcomes) Negative() int { return o.Dropped + o.Hidden }
