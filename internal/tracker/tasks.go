package tracker

import (
	"sync"

	"github.com/Strob0t/AgentWire/domain/run"
)

// Tasks tracks the main conversation task and any sub-tasks running
// alongside it.
//
// The first run_started of a turn establishes the main task; every later
// start while the main task runs is a sub-task. Only the main task's
// finish ends the turn; sub-task finishes just shrink the set, and
// finishes for unknown ids are stale no-ops.
type Tasks struct {
	mu   sync.Mutex
	main *run.Task
	subs map[string]run.Task
}

// NewTasks creates an empty tracker.
func NewTasks() *Tasks {
	return &Tasks{subs: make(map[string]run.Task)}
}

// Start records a task start and classifies it. Restarting the current
// main task is idempotent.
func (t *Tasks) Start(taskID, runID string) run.Parent {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.main == nil || t.main.TaskID == taskID {
		t.main = &run.Task{TaskID: taskID, RunID: runID, Parent: run.ParentMain, Status: run.TaskRunning}
		return run.ParentMain
	}

	t.subs[taskID] = run.Task{TaskID: taskID, RunID: runID, Parent: run.ParentSub, Status: run.TaskRunning}
	return run.ParentSub
}

// Finish records a task finish and reports whether it ended the main
// task. A finish without a task id is attributed to the main task.
func (t *Tasks) Finish(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.main != nil && (taskID == "" || taskID == t.main.TaskID) {
		t.main = nil
		t.subs = make(map[string]run.Task)
		return true
	}

	delete(t.subs, taskID)
	return false
}

// Active reports whether any task is still running.
func (t *Tasks) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.main != nil || len(t.subs) > 0
}

// MainTaskID returns the current main task id, if a turn is in flight.
func (t *Tasks) MainTaskID() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.main == nil {
		return ""
	}
	return t.main.TaskID
}

// Snapshot returns copies of every running task, main first.
func (t *Tasks) Snapshot() []run.Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []run.Task
	if t.main != nil {
		out = append(out, *t.main)
	}
	for _, sub := range t.subs {
		out = append(out, sub)
	}
	return out
}

// Reset forgets all tasks.
func (t *Tasks) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.main = nil
	t.subs = make(map[string]run.Task)
}
