// Package pending tracks in-flight mutations per canonical entity key so the
// same cart line is never written by two overlapping operations.
package pending

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	ErrBusy      = errors.New("operation already in progress")
	ErrAbandoned = errors.New("operation abandoned")
	ErrEmptyKey  = errors.New("empty pending key")
)

// Fixed keys for operations that are not tied to a single cart line.
const (
	CheckoutKey = "checkout"
	ClearKey    = "cart"
)

// Task is a reservation of one key. Its context is cancelled when the task
// ends or is abandoned.
type Task struct {
	Key   string
	Token string

	ctx       context.Context
	cancel    context.CancelFunc
	tracker   *Tracker
	abandoned atomic.Bool
	once      sync.Once
}

func (t *Task) Context() context.Context { return t.ctx }

// Abandoned reports whether the owning session was torn down while the task
// was in flight. Results of an abandoned task must not be applied.
func (t *Task) Abandoned() bool { return t.abandoned.Load() }

// Err returns ErrAbandoned for abandoned tasks.
func (t *Task) Err() error {
	if t.Abandoned() {
		return ErrAbandoned
	}
	return nil
}

// End releases the reservation. It is safe to call more than once.
func (t *Task) End() {
	t.once.Do(func() {
		t.tracker.release(t)
		t.cancel()
	})
}

// Tracker is the set of keys that currently have a mutation in flight.
type Tracker struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

func New() *Tracker {
	return &Tracker{tasks: make(map[string]*Task)}
}

// Begin reserves key. A key that is already reserved yields ErrBusy; the
// caller must reject the duplicate rather than race it.
func (tr *Tracker) Begin(ctx context.Context, key string) (*Task, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, ok := tr.tasks[key]; ok {
		return nil, ErrBusy
	}
	tctx, cancel := context.WithCancel(ctx)
	t := &Task{
		Key:     key,
		Token:   uuid.NewString(),
		ctx:     tctx,
		cancel:  cancel,
		tracker: tr,
	}
	tr.tasks[key] = t
	return t, nil
}

func (tr *Tracker) release(t *Task) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if cur, ok := tr.tasks[t.Key]; ok && cur == t {
		delete(tr.tasks, t.Key)
	}
}

func (tr *Tracker) IsPending(key string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	_, ok := tr.tasks[key]
	return ok
}

// Keys returns the pending keys in sorted order.
func (tr *Tracker) Keys() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	keys := make([]string, 0, len(tr.tasks))
	for k := range tr.tasks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (tr *Tracker) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.tasks)
}

// AbandonAll marks every outstanding task abandoned, cancels it and frees its
// key. It returns the number of abandoned tasks.
func (tr *Tracker) AbandonAll() int {
	tr.mu.Lock()
	tasks := tr.tasks
	tr.tasks = make(map[string]*Task)
	tr.mu.Unlock()

	for _, t := range tasks {
		t.abandoned.Store(true)
		t.cancel()
	}
	return len(tasks)
}
