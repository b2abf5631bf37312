package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuilderFreezesRegistry(t *testing.T) {
	b := NewBuilder()
	noop := SubscriberFunc(func(context.Context, Event) error { return nil })

	b.Subscribe("push", "first", noop).Subscribe("push", "second", noop)
	b.Subscribe("pull_request", "pr", noop)
	reg := b.Build()

	subs := reg.Lookup("push")
	require.Len(t, subs, 2)
	assert.Equal(t, "first", subs[0].Name)
	assert.Equal(t, "second", subs[1].Name)
	assert.Equal(t, []string{"pull_request", "push"}, reg.Events())
	assert.Empty(t, reg.Lookup("issues"))

	assert.Panics(t, func() { b.Subscribe("push", "late", noop) })
}

func TestBuilderRejectsInvalidSubscription(t *testing.T) {
	assert.Panics(t, func() { NewBuilder().Subscribe("", "x", SubscriberFunc(nil)) })
	assert.Panics(t, func() { NewBuilder().Subscribe("push", "x", nil) })
}

func TestNilRegistryLookup(t *testing.T) {
	var reg *Registry
	assert.Nil(t, reg.Lookup("push"))
	assert.Nil(t, reg.Events())
}

func TestDispatchInvokesMatchingSubscribers(t *testing.T) {
	var mu sync.Mutex
	got := map[string]any{}

	record := func(name string) Subscriber {
		return SubscriberFunc(func(_ context.Context, ev Event) error {
			mu.Lock()
			defer mu.Unlock()
			got[name] = ev.Payload
			return nil
		})
	}

	reg := NewBuilder().
		Subscribe("push", "a", record("a")).
		Subscribe("push", "b", record("b")).
		Subscribe("pull_request", "c", record("c")).
		Build()
	d := NewDispatcher(reg, discardLogger())

	payload := map[string]any{"a": float64(1)}
	n := d.Dispatch(Event{Name: "push", Payload: payload})
	assert.Equal(t, 2, n)

	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, map[string]any{"a": payload, "b": payload}, got)
}

func TestDispatchUnregisteredEvent(t *testing.T) {
	d := NewDispatcher(NewBuilder().Build(), discardLogger())
	assert.Equal(t, 0, d.Dispatch(Event{Name: "ping"}))
	assert.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatchIsolatesFailures(t *testing.T) {
	var ok atomic.Int32

	reg := NewBuilder().
		Subscribe("push", "fails", SubscriberFunc(func(context.Context, Event) error {
			return errors.New("boom")
		})).
		Subscribe("push", "panics", SubscriberFunc(func(context.Context, Event) error {
			panic("kaboom")
		})).
		Subscribe("push", "works", SubscriberFunc(func(context.Context, Event) error {
			ok.Add(1)
			return nil
		})).
		Build()
	d := NewDispatcher(reg, discardLogger())

	assert.NotPanics(t, func() { d.Dispatch(Event{Name: "push"}) })
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, int32(1), ok.Load())
}

func TestDispatchDoesNotWaitForSubscribers(t *testing.T) {
	release := make(chan struct{})
	reg := NewBuilder().
		Subscribe("push", "slow", SubscriberFunc(func(context.Context, Event) error {
			<-release
			return nil
		})).
		Build()
	d := NewDispatcher(reg, discardLogger())

	returned := make(chan struct{})
	go func() {
		d.Dispatch(Event{Name: "push"})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on subscriber")
	}

	close(release)
	require.NoError(t, d.Shutdown(context.Background()))
}

func TestShutdownTimesOutAndCancels(t *testing.T) {
	cancelled := make(chan struct{})
	reg := NewBuilder().
		Subscribe("push", "stuck", SubscriberFunc(func(ctx context.Context, _ Event) error {
			<-ctx.Done()
			close(cancelled)
			return ctx.Err()
		})).
		Build()
	d := NewDispatcher(reg, discardLogger())
	d.Dispatch(Event{Name: "push"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Shutdown(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("subscriber context was not cancelled")
	}
}

func TestDispatchAfterShutdownLaunchesNothing(t *testing.T) {
	var calls atomic.Int32
	reg := NewBuilder().
		Subscribe("push", "counter", SubscriberFunc(func(context.Context, Event) error {
			calls.Add(1)
			return nil
		})).
		Build()
	d := NewDispatcher(reg, discardLogger())

	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, 0, d.Dispatch(Event{Name: "push", DeliveryID: "late"}))
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, int32(0), calls.Load())
}

func TestEventDecode(t *testing.T) {
	ev := Event{Name: "push", Raw: []byte(`{"ref":"refs/heads/main"}`)}

	var v struct {
		Ref string `json:"ref"`
	}
	require.NoError(t, ev.Decode(&v))
	assert.Equal(t, "refs/heads/main", v.Ref)

	bad := Event{Name: "push", Raw: []byte(`[`)}
	assert.Error(t, bad.Decode(&v))
}
