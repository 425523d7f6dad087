package inspectbridge

import (
	"strings"
	"sync"
)

// StepState describes the progress of one recorded lifecycle step.
type StepState int

const (
	// StepInProgress marks a step that started but has not finished.
	StepInProgress StepState = iota

	// StepSuccess marks a completed step.
	StepSuccess

	// StepFailed marks a step that ended in failure.
	StepFailed
)

// StateElement is one named entry in the diagnostic log.
type StateElement struct {
	Name  string
	State StepState
}

// StateListener is notified whenever the recorded state changes. Listeners
// run on the recording goroutine and must not call back into the recorder
// or the client.
type StateListener interface {
	OnStateUpdate()
}

// StateRecorder records named lifecycle steps for human-readable
// introspection. It is purely observational and has no effect on dispatch.
type StateRecorder struct {
	mu       sync.Mutex
	steps    []*stateEntry
	listener StateListener
}

type stateEntry struct {
	name  string
	state StepState
}

// NewStateRecorder creates an empty recorder.
func NewStateRecorder() *StateRecorder {
	return &StateRecorder{}
}

// SetListener installs the update listener, replacing any previous one.
func (r *StateRecorder) SetListener(l StateListener) {
	r.mu.Lock()
	r.listener = l
	r.mu.Unlock()
	if l != nil {
		l.OnStateUpdate()
	}
}

// Start records a new in-progress step and returns its completion handle.
func (r *StateRecorder) Start(label string) *Step {
	entry := &stateEntry{name: label, state: StepInProgress}
	r.mu.Lock()
	r.steps = append(r.steps, entry)
	l := r.listener
	r.mu.Unlock()

	if l != nil {
		l.OnStateUpdate()
	}
	return &Step{recorder: r, entry: entry}
}

func (r *StateRecorder) update(entry *stateEntry, state StepState) {
	r.mu.Lock()
	entry.state = state
	l := r.listener
	r.mu.Unlock()

	if l != nil {
		l.OnStateUpdate()
	}
}

// Snapshot renders the step log as display text, oldest first.
func (r *StateRecorder) Snapshot() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, e := range r.steps {
		switch e.state {
		case StepSuccess:
			b.WriteString("[done] ")
		case StepFailed:
			b.WriteString("[fail] ")
		default:
			b.WriteString("[....] ")
		}
		b.WriteString(e.name)
		b.WriteByte('\n')
	}
	return b.String()
}

// Elements returns a copy of the recorded steps.
func (r *StateRecorder) Elements() []StateElement {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]StateElement, len(r.steps))
	for i, e := range r.steps {
		out[i] = StateElement{Name: e.name, State: e.state}
	}
	return out
}

// Step is the completion handle for one recorded step. Complete and Fail
// are each effective at most once; later calls are ignored.
type Step struct {
	recorder *StateRecorder
	entry    *stateEntry
	once     sync.Once
}

// Complete marks the step as successful.
func (s *Step) Complete() {
	s.once.Do(func() {
		s.recorder.update(s.entry, StepSuccess)
	})
}

// Fail marks the step as failed.
func (s *Step) Fail() {
	s.once.Do(func() {
		s.recorder.update(s.entry, StepFailed)
	})
}
