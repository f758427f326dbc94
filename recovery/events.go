package recovery

import (
	"context"
	"fmt"

	"github.com/jonwraymond/selfheal/observe"
)

// EventName identifies a handler event.
type EventName string

const (
	// EventRecoveryAttempt fires once per HandleEpicFailure call.
	EventRecoveryAttempt EventName = "recoveryAttempt"
	// EventEscalation fires when a unit is escalated.
	EventEscalation EventName = "escalation"
)

// Event is delivered to listeners. Report is set for escalation events.
type Event struct {
	Name     EventName
	UnitID   string
	Attempt  int
	Strategy Strategy
	Report   *EscalationReport
}

// Listener receives handler events. Listeners run synchronously on the
// goroutine that reported the failure, after the handler's state is updated.
type Listener func(Event)

// On registers l for events named name.
func (h *Handler) On(name EventName, l Listener) {
	if l == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[name] = append(h.listeners[name], l)
}

func (h *Handler) emit(ev Event) {
	h.mu.Lock()
	ls := append([]Listener(nil), h.listeners[ev.Name]...)
	h.mu.Unlock()

	for _, l := range ls {
		h.deliver(l, ev)
	}
}

// deliver isolates the handler from a panicking listener.
func (h *Handler) deliver(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			h.inst.Logger.Error(context.Background(), "recovery listener panicked",
				observe.Field{Key: "event", Value: string(ev.Name)},
				observe.Field{Key: "recovery.id", Value: ev.UnitID},
				observe.Field{Key: "error", Value: fmt.Sprint(r)})
		}
	}()
	l(ev)
}
