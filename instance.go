package session

import (
	"context"
	"sync"
)

// MountTarget is an opaque UI mount handle. The instance only ever uses it
// as a map key; its contents are never inspected.
type MountTarget any

// MountOptions carries presentation options through to the delegate.
type MountOptions map[string]any

// EventHandler receives delegate event payloads.
type EventHandler func(payload any)

// Call is a queued request/response method invocation. Replay order is
// preserved per Group.
type Call struct {
	Group  string
	Method string
	Args   []any
}

// Delegate is the underlying provider instance the Isomorphic Instance
// eventually attaches to.
type Delegate interface {
	Mount(target MountTarget, opts MountOptions) error
	Unmount(target MountTarget) error
	Subscribe(event string, handler EventHandler) (func(), error)
	Invoke(ctx context.Context, call Call) error
}

type pendingMount struct {
	target MountTarget
	opts   MountOptions
}

type listenerHandle struct {
	mu        sync.Mutex
	cancelled bool
	unsub     func()
}

func (h *listenerHandle) cancel() {
	h.mu.Lock()
	unsub := h.unsub
	h.cancelled = true
	h.unsub = nil
	h.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (h *listenerHandle) activate(unsub func()) {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		return
	}
	h.unsub = unsub
	h.mu.Unlock()
}

type pendingListener struct {
	event   string
	handler EventHandler
	handle  *listenerHandle
}

// premountState buffers operations issued before the delegate exists.
// Each queue generation is replayed at most once; items enqueued while a
// replay is in flight land in the next generation and surface on the next
// Attach/Flush.
type premountState struct {
	generation uint64
	mounts     []pendingMount
	mountIndex map[MountTarget]int
	listeners  []*pendingListener
	groupOrder []string
	calls      map[string][]Call
}

func newPremountState(generation uint64) *premountState {
	return &premountState{
		generation: generation,
		mountIndex: map[MountTarget]int{},
		calls:      map[string][]Call{},
	}
}

func (q *premountState) empty() bool {
	return len(q.mounts) == 0 && len(q.listeners) == 0 && len(q.calls) == 0
}

// Instance wraps an eventually-available Delegate as an explicit two-state
// machine: NotReady carries the premount queue, Ready carries the real
// delegate. All operations branch on that tag rather than probing for nil
// at call sites.
type Instance struct {
	mu       sync.Mutex
	delegate Delegate
	queue    *premountState
	logger   Logger
}

// InstanceOption customizes construction.
type InstanceOption func(*Instance)

// WithInstanceLogger overrides the default logger.
func WithInstanceLogger(logger Logger) InstanceOption {
	return func(i *Instance) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInstance starts in the NotReady state with an empty queue.
func NewInstance(opts ...InstanceOption) *Instance {
	i := &Instance{
		queue:  newPremountState(1),
		logger: defLogger{},
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Ready reports whether a delegate is attached.
func (i *Instance) Ready() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.delegate != nil
}

// Mount renders into target, or queues the request when not ready. A
// second pre-ready Mount for the same target replaces the queued options
// in place, keeping the original position. The pre-ready caller gets
// ErrNotInitialized even though the mount will happen on attach.
func (i *Instance) Mount(target MountTarget, opts MountOptions) error {
	i.mu.Lock()
	if d := i.delegate; d != nil {
		i.mu.Unlock()
		return d.Mount(target, opts)
	}

	if idx, ok := i.queue.mountIndex[target]; ok {
		i.queue.mounts[idx].opts = opts
	} else {
		i.queue.mountIndex[target] = len(i.queue.mounts)
		i.queue.mounts = append(i.queue.mounts, pendingMount{target: target, opts: opts})
	}
	i.mu.Unlock()

	return ErrNotInitialized
}

// Unmount tears down target, or cancels its queued mount when not ready.
func (i *Instance) Unmount(target MountTarget) error {
	i.mu.Lock()
	if d := i.delegate; d != nil {
		i.mu.Unlock()
		return d.Unmount(target)
	}

	if idx, ok := i.queue.mountIndex[target]; ok {
		delete(i.queue.mountIndex, target)
		i.queue.mounts = append(i.queue.mounts[:idx], i.queue.mounts[idx+1:]...)
		for t, j := range i.queue.mountIndex {
			if j > idx {
				i.queue.mountIndex[t] = j - 1
			}
		}
		i.mu.Unlock()
		return nil
	}
	i.mu.Unlock()

	return ErrNotInitialized
}

// Subscribe registers handler for event. Pre-ready registrations are
// queued and re-subscribed against the real delegate on attach; the
// returned unsubscribe works in both states.
func (i *Instance) Subscribe(event string, handler EventHandler) (func(), error) {
	i.mu.Lock()
	if d := i.delegate; d != nil {
		i.mu.Unlock()
		return d.Subscribe(event, handler)
	}

	pending := &pendingListener{
		event:   event,
		handler: handler,
		handle:  &listenerHandle{},
	}
	i.queue.listeners = append(i.queue.listeners, pending)
	i.mu.Unlock()

	return pending.handle.cancel, nil
}

// Invoke executes a request/response call. When not ready the call is
// queued for its eventual side effect but the caller fails immediately
// with ErrNotInitialized; it must not block waiting for readiness.
func (i *Instance) Invoke(ctx context.Context, call Call) error {
	i.mu.Lock()
	if d := i.delegate; d != nil {
		i.mu.Unlock()
		return d.Invoke(ctx, call)
	}

	if _, ok := i.queue.calls[call.Group]; !ok {
		i.queue.groupOrder = append(i.queue.groupOrder, call.Group)
	}
	i.queue.calls[call.Group] = append(i.queue.calls[call.Group], call)
	i.mu.Unlock()

	return ErrNotInitialized
}

// Attach transitions to Ready exactly once and replays the queue. A
// second Attach before Clear is a no-op: the first delegate wins. The
// queue is snapshotted and swapped for a fresh generation before replay,
// so items enqueued during replay wait for the next Attach/Flush.
func (i *Instance) Attach(d Delegate) {
	if d == nil {
		return
	}

	i.mu.Lock()
	if i.delegate != nil {
		i.mu.Unlock()
		return
	}
	i.delegate = d
	snapshot := i.queue
	i.queue = newPremountState(snapshot.generation + 1)
	i.mu.Unlock()

	i.replay(d, snapshot)
}

// Flush replays anything that landed in the queue after the attach-time
// replay snapshot was taken. No-op while not ready.
func (i *Instance) Flush() {
	i.mu.Lock()
	d := i.delegate
	if d == nil || i.queue.empty() {
		i.mu.Unlock()
		return
	}
	snapshot := i.queue
	i.queue = newPremountState(snapshot.generation + 1)
	i.mu.Unlock()

	i.replay(d, snapshot)
}

// Clear detaches the delegate and resets to NotReady with a fresh queue,
// e.g. for test teardown or reconfiguration.
func (i *Instance) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.delegate = nil
	i.queue = newPremountState(i.queue.generation + 1)
}

// replay drains one queue generation: mounts in enqueue order, then
// listener re-subscriptions, then calls per group. Individual failures
// are logged and swallowed so one bad item cannot block the rest.
func (i *Instance) replay(d Delegate, q *premountState) {
	for _, m := range q.mounts {
		if err := d.Mount(m.target, m.opts); err != nil {
			i.logger.Warn("queued mount replay failed", "generation", q.generation, "error", err)
		}
	}

	for _, l := range q.listeners {
		l.handle.mu.Lock()
		cancelled := l.handle.cancelled
		l.handle.mu.Unlock()
		if cancelled {
			continue
		}

		unsub, err := d.Subscribe(l.event, l.handler)
		if err != nil {
			i.logger.Warn("queued listener replay failed", "event", l.event, "error", err)
			continue
		}
		l.handle.activate(unsub)
	}

	for _, group := range q.groupOrder {
		for _, call := range q.calls[group] {
			if err := d.Invoke(context.Background(), call); err != nil {
				i.logger.Warn("queued call replay failed",
					"group", call.Group, "method", call.Method, "error", err)
			}
		}
	}
}
