package inspectbridge

import (
	"strings"
	"testing"
)

func TestStateRecorder_StepLifecycle(t *testing.T) {
	r := NewStateRecorder()

	step := r.Start("Connect to peer")
	elements := r.Elements()
	if len(elements) != 1 || elements[0].State != StepInProgress {
		t.Fatalf("Elements() = %v, want one in-progress step", elements)
	}

	step.Complete()
	if got := r.Elements()[0].State; got != StepSuccess {
		t.Errorf("state after Complete() = %v, want StepSuccess", got)
	}

	// Completion is one-shot; a late Fail must not rewrite history.
	step.Fail()
	if got := r.Elements()[0].State; got != StepSuccess {
		t.Errorf("state after late Fail() = %v, want StepSuccess", got)
	}
}

func TestStateRecorder_Snapshot(t *testing.T) {
	r := NewStateRecorder()
	r.Start("first").Complete()
	r.Start("second").Fail()
	r.Start("third")

	snapshot := r.Snapshot()
	lines := strings.Split(strings.TrimRight(snapshot, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Snapshot() = %q, want 3 lines", snapshot)
	}
	if !strings.HasPrefix(lines[0], "[done] first") {
		t.Errorf("line 1 = %q, want done marker", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[fail] second") {
		t.Errorf("line 2 = %q, want fail marker", lines[1])
	}
	if !strings.HasPrefix(lines[2], "[....] third") {
		t.Errorf("line 3 = %q, want in-progress marker", lines[2])
	}
}

func TestStateRecorder_Listener(t *testing.T) {
	r := NewStateRecorder()
	l := &countingListener{}

	r.SetListener(l) // fires once on install
	step := r.Start("step")
	step.Complete()

	if l.updates != 3 {
		t.Errorf("listener updates = %d, want 3 (install, start, complete)", l.updates)
	}
}

type countingListener struct {
	updates int
}

func (l *countingListener) OnStateUpdate() { l.updates++ }
