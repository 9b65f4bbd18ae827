package idle

import "termidle/internal/power"

// Event is an input to the engine. Events are applied one at a time.
type Event interface {
	isEvent()
}

// Tick is the periodic clock event.
type Tick struct{}

// VerdictArrived carries the result of a classification request.
type VerdictArrived struct {
	Verdict PollVerdict
}

// ActivityObserved reports user input. Source names the watcher that saw it.
type ActivityObserved struct {
	Source string
}

// ActionCompleted carries the outcome of an invoked power action.
type ActionCompleted struct {
	Action    power.Action
	EpisodeID string
	Output    string
	Err       error
}

func (Tick) isEvent()             {}
func (VerdictArrived) isEvent()   {}
func (ActivityObserved) isEvent() {}
func (ActionCompleted) isEvent()  {}

// Effect is work the engine asks its host to perform outside the event loop.
// Results come back as events.
type Effect interface {
	isEffect()
}

// RequestProbe asks for one classification of the session's children.
type RequestProbe struct{}

// InvokeAction asks for the power action to be issued once.
type InvokeAction struct {
	Action    power.Action
	EpisodeID string
}

func (RequestProbe) isEffect() {}
func (InvokeAction) isEffect() {}
