package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDelegate records every operation in arrival order.
type fakeDelegate struct {
	ops          []string
	mountErr     error
	subscriptions map[string]session.EventHandler
	unsubscribed []string
}

func newFakeDelegate() *fakeDelegate {
	return &fakeDelegate{subscriptions: map[string]session.EventHandler{}}
}

func (d *fakeDelegate) Mount(target session.MountTarget, opts session.MountOptions) error {
	d.ops = append(d.ops, fmt.Sprintf("mount:%v", target))
	return d.mountErr
}

func (d *fakeDelegate) Unmount(target session.MountTarget) error {
	d.ops = append(d.ops, fmt.Sprintf("unmount:%v", target))
	return nil
}

func (d *fakeDelegate) Subscribe(event string, handler session.EventHandler) (func(), error) {
	d.ops = append(d.ops, "subscribe:"+event)
	d.subscriptions[event] = handler
	return func() {
		d.unsubscribed = append(d.unsubscribed, event)
	}, nil
}

func (d *fakeDelegate) Invoke(ctx context.Context, call session.Call) error {
	d.ops = append(d.ops, fmt.Sprintf("invoke:%s.%s", call.Group, call.Method))
	return nil
}

func TestInstanceForwardsWhenReady(t *testing.T) {
	delegate := newFakeDelegate()
	instance := session.NewInstance()
	instance.Attach(delegate)

	require.True(t, instance.Ready())
	require.NoError(t, instance.Mount("widget", nil))
	require.NoError(t, instance.Invoke(context.Background(), session.Call{Group: "ui", Method: "open"}))

	assert.Equal(t, []string{"mount:widget", "invoke:ui.open"}, delegate.ops)
}

func TestInstanceQueuesAndFailsFastPreReady(t *testing.T) {
	instance := session.NewInstance()

	err := instance.Mount("widget", nil)
	assert.ErrorIs(t, err, session.ErrNotInitialized)

	err = instance.Invoke(context.Background(), session.Call{Group: "ui", Method: "open"})
	assert.ErrorIs(t, err, session.ErrNotInitialized)
}

func TestInstanceReplaysQueueInOrderExactlyOnce(t *testing.T) {
	instance := session.NewInstance()

	_ = instance.Mount("a", session.MountOptions{"variant": "one"})
	_ = instance.Mount("b", nil)
	_, err := instance.Subscribe("user-changed", func(any) {})
	require.NoError(t, err)
	_ = instance.Invoke(context.Background(), session.Call{Group: "ui", Method: "open"})
	_ = instance.Invoke(context.Background(), session.Call{Group: "ui", Method: "focus"})
	_ = instance.Invoke(context.Background(), session.Call{Group: "data", Method: "refresh"})

	delegate := newFakeDelegate()
	instance.Attach(delegate)

	want := []string{
		"mount:a",
		"mount:b",
		"subscribe:user-changed",
		"invoke:ui.open",
		"invoke:ui.focus",
		"invoke:data.refresh",
	}
	assert.Equal(t, want, delegate.ops)

	// the queue generation was consumed; nothing replays twice
	instance.Flush()
	assert.Equal(t, want, delegate.ops)
}

func TestInstanceAttachIsExactlyOnce(t *testing.T) {
	first := newFakeDelegate()
	second := newFakeDelegate()

	instance := session.NewInstance()
	instance.Attach(first)
	instance.Attach(second)

	require.NoError(t, instance.Mount("widget", nil))
	assert.Equal(t, []string{"mount:widget"}, first.ops)
	assert.Empty(t, second.ops)
}

func TestInstanceMountReplacesQueuedTargetInPlace(t *testing.T) {
	instance := session.NewInstance()

	_ = instance.Mount("a", session.MountOptions{"variant": "old"})
	_ = instance.Mount("b", nil)
	_ = instance.Mount("a", session.MountOptions{"variant": "new"})

	delegate := newFakeDelegate()
	instance.Attach(delegate)

	// "a" keeps its original position and mounts once
	assert.Equal(t, []string{"mount:a", "mount:b"}, delegate.ops)
}

func TestInstanceUnmountCancelsQueuedMount(t *testing.T) {
	instance := session.NewInstance()

	_ = instance.Mount("a", nil)
	_ = instance.Mount("b", nil)

	require.NoError(t, instance.Unmount("a"))

	delegate := newFakeDelegate()
	instance.Attach(delegate)

	assert.Equal(t, []string{"mount:b"}, delegate.ops)
}

func TestInstanceUnmountUnknownTargetPreReady(t *testing.T) {
	instance := session.NewInstance()

	err := instance.Unmount("never-mounted")
	assert.ErrorIs(t, err, session.ErrNotInitialized)
}

func TestInstancePreReadyUnsubscribeSurvivesAttach(t *testing.T) {
	instance := session.NewInstance()

	cancel, err := instance.Subscribe("user-changed", func(any) {})
	require.NoError(t, err)
	cancel()

	delegate := newFakeDelegate()
	instance.Attach(delegate)

	assert.Empty(t, delegate.ops, "cancelled listener must not be replayed")
}

func TestInstanceUnsubscribeAfterReplay(t *testing.T) {
	instance := session.NewInstance()

	cancel, err := instance.Subscribe("user-changed", func(any) {})
	require.NoError(t, err)

	delegate := newFakeDelegate()
	instance.Attach(delegate)
	require.Equal(t, []string{"subscribe:user-changed"}, delegate.ops)

	cancel()
	assert.Equal(t, []string{"user-changed"}, delegate.unsubscribed)
}

func TestInstanceReplayFailureDoesNotBlockRest(t *testing.T) {
	instance := session.NewInstance()

	_ = instance.Mount("a", nil)
	_ = instance.Invoke(context.Background(), session.Call{Group: "ui", Method: "open"})

	delegate := newFakeDelegate()
	delegate.mountErr = errors.New("target gone")
	instance.Attach(delegate)

	assert.Equal(t, []string{"mount:a", "invoke:ui.open"}, delegate.ops)
}

func TestInstanceClearResetsToNotReady(t *testing.T) {
	delegate := newFakeDelegate()
	instance := session.NewInstance()
	instance.Attach(delegate)
	require.True(t, instance.Ready())

	instance.Clear()
	assert.False(t, instance.Ready())

	err := instance.Mount("widget", nil)
	assert.ErrorIs(t, err, session.ErrNotInitialized)

	// fresh delegate picks up the new generation
	next := newFakeDelegate()
	instance.Attach(next)
	assert.Equal(t, []string{"mount:widget"}, next.ops)
}
