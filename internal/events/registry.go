package events

import (
	"fmt"
	"sort"
)

// Subscription binds a named subscriber to an event-type name.
type Subscription struct {
	Event      string
	Name       string
	Subscriber Subscriber
}

// Registry is an immutable event-name to subscribers table.
type Registry struct {
	subs map[string][]Subscription
}

// Builder collects subscriptions before the listener starts.
type Builder struct {
	subs  map[string][]Subscription
	built bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{subs: make(map[string][]Subscription)}
}

// Subscribe registers sub for event under a descriptive name.
// Subscribers for the same event are launched in registration order.
func (b *Builder) Subscribe(event, name string, sub Subscriber) *Builder {
	if b.built {
		panic("events: Subscribe called after Build")
	}
	if event == "" || sub == nil {
		panic(fmt.Sprintf("events: invalid subscription %q for event %q", name, event))
	}
	b.subs[event] = append(b.subs[event], Subscription{Event: event, Name: name, Subscriber: sub})
	return b
}

// Build freezes the subscriptions into a Registry.
func (b *Builder) Build() *Registry {
	b.built = true

	frozen := make(map[string][]Subscription, len(b.subs))
	for event, subs := range b.subs {
		frozen[event] = append([]Subscription(nil), subs...)
	}
	return &Registry{subs: frozen}
}

// Lookup returns the subscriptions for event. The slice must not be modified.
func (r *Registry) Lookup(event string) []Subscription {
	if r == nil {
		return nil
	}
	return r.subs[event]
}

// Events returns the registered event names, sorted.
func (r *Registry) Events() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.subs))
	for name := range r.subs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
