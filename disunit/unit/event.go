package unit

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/bot"
)

type Event struct {
	base
	event   string
	once    bool
	handler EventHandler
}

var _ Unit = (*Event)(nil)

func NewEvent(d *EventDefinition, location string, binder Binder) (*Event, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	e := &Event{
		base:  newBase(d.Common, location),
		event: d.EventName(),
		once:  d.Once,
	}
	h, ok := binder.Event(e.handlerID)
	if !ok {
		return nil, fmt.Errorf("no event handler registered as %q", e.handlerID)
	}
	e.handler = h
	return e, nil
}

func (e *Event) Kind() Kind { return KindEvent }

// EventName is the lowerCamel gateway event name, e.g. "messageCreate".
func (e *Event) EventName() string { return e.event }
func (e *Event) Once() bool        { return e.once }

func (e *Event) Handle(ctx context.Context, ev bot.Event) error {
	return e.handler(ctx, ev)
}

func (e *Event) Serialize() Record {
	r := e.record(KindEvent)
	r["event"] = e.event
	r["once"] = e.once
	return r
}
