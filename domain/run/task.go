package run

// Parent classifies a task relative to the conversation turn that spawned it.
type Parent string

const (
	// ParentMain marks the task whose lifecycle controls the conversation's
	// streaming and loading indicators.
	ParentMain Parent = "main"
	// ParentSub marks a concurrent task spawned while the main task runs.
	ParentSub Parent = "sub"
)

// TaskStatus is the coarse state of a task.
type TaskStatus string

const (
	TaskRunning  TaskStatus = "running"
	TaskFinished TaskStatus = "finished"
)

// Task is one unit of agent work announced by a run_started event.
type Task struct {
	TaskID string     `json:"task_id"`
	RunID  string     `json:"run_id,omitempty"`
	Parent Parent     `json:"parent"`
	Status TaskStatus `json:"status"`
}
