package service

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier presents operation outcomes to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Success(msg string) { n.logger().Info(msg, "notify", "success") }

func (n LogNotifier) Error(msg string) { n.logger().Warn(msg, "notify", "error") }

func (n LogNotifier) logger() *slog.Logger {
	if n.Log == nil {
		return slog.Default()
	}
	return n.Log
}

// Note is one recorded notification.
type Note struct {
	Level string
	Text  string
}

// Recorder keeps notifications in memory, newest last.
type Recorder struct {
	mu    sync.Mutex
	notes []Note
}

func (r *Recorder) Success(msg string) { r.add("success", msg) }

func (r *Recorder) Error(msg string) { r.add("error", msg) }

func (r *Recorder) add(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, Note{Level: level, Text: msg})
}

func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// Last returns the newest notification, zero when there is none.
func (r *Recorder) Last() Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Note{}
	}
	return r.notes[len(r.notes)-1]
}

// Drain returns and forgets every recorded notification.
func (r *Recorder) Drain() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notes
	r.notes = nil
	return out
}

// notify reports err (or success) and returns err unchanged. Cancelled
// operations are silent.
func notify(n Notifier, err error, success, fallback string) error {
	if n == nil {
		return err
	}
	switch {
	case err == nil:
		if success != "" {
			n.Success(success)
		}
	case Classify(err) == KindCancelled:
	default:
		n.Error(Message(err, fallback))
	}
	return err
}

// Notifiers fans every notification out to each member.
type Notifiers []Notifier

func (ns Notifiers) Success(msg string) {
	for _, n := range ns {
		n.Success(msg)
	}
}

func (ns Notifiers) Error(msg string) {
	for _, n := range ns {
		n.Error(msg)
	}
}
