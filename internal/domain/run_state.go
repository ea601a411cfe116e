package domain

import (
	"time"
)

// RunStatus represents the overall status of a publish run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// TaskStatus represents the status of an individual task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

// RunState records what a publish run did, so a failed run can be inspected
// afterwards. Nothing is undone automatically.
type RunState struct {
	RunID           string       `json:"run_id"`
	StartedAt       time.Time    `json:"started_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Version         string       `json:"version"`
	PreviousVersion string       `json:"previous_version,omitempty"`
	Tasks           []TaskRecord `json:"tasks"`
	Status          RunStatus    `json:"status"`
	Error           string       `json:"error,omitempty"`
}

// TaskRecord represents a single task in the run
type TaskRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Depth       int        `json:"depth"`
	Status      TaskStatus `json:"status"`
	SkipReason  string     `json:"skip_reason,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// NewRunState creates a new run state
func NewRunState(runID string) *RunState {
	now := time.Now()
	return &RunState{
		RunID:     runID,
		StartedAt: now,
		UpdatedAt: now,
		Tasks:     []TaskRecord{},
		Status:    RunStatusPending,
	}
}

// AddTask registers a pending task
func (rs *RunState) AddTask(id, title string, depth int) {
	rs.Tasks = append(rs.Tasks, TaskRecord{
		ID:     id,
		Title:  title,
		Depth:  depth,
		Status: TaskStatusPending,
	})
	rs.UpdatedAt = time.Now()
}

// Task returns the record with the given id, or nil.
func (rs *RunState) Task(id string) *TaskRecord {
	for i := range rs.Tasks {
		if rs.Tasks[i].ID == id {
			return &rs.Tasks[i]
		}
	}
	return nil
}

// MarkTaskStarted marks a task as running
func (rs *RunState) MarkTaskStarted(id string) {
	now := time.Now()
	if t := rs.Task(id); t != nil && t.Status == TaskStatusPending {
		t.Status = TaskStatusRunning
		t.StartedAt = &now
		rs.UpdatedAt = now
	}
}

// MarkTaskCompleted marks a running task as completed
func (rs *RunState) MarkTaskCompleted(id string) {
	now := time.Now()
	if t := rs.Task(id); t != nil && t.Status == TaskStatusRunning {
		t.Status = TaskStatusCompleted
		t.CompletedAt = &now
		rs.UpdatedAt = now
	}
}

// MarkTaskSkipped marks a pending task as skipped
func (rs *RunState) MarkTaskSkipped(id, reason string) {
	if t := rs.Task(id); t != nil && t.Status == TaskStatusPending {
		t.Status = TaskStatusSkipped
		t.SkipReason = reason
		rs.UpdatedAt = time.Now()
	}
}

// MarkTaskFailed marks a task as failed and fails the run
func (rs *RunState) MarkTaskFailed(id string, err error) {
	now := time.Now()
	if t := rs.Task(id); t != nil && t.Status == TaskStatusRunning {
		t.Status = TaskStatusFailed
		t.CompletedAt = &now
		t.Error = err.Error()
	}
	rs.Status = RunStatusFailed
	rs.Error = err.Error()
	rs.UpdatedAt = now
}

// CompletedTasks returns the tasks that finished successfully, in run order
func (rs *RunState) CompletedTasks() []TaskRecord {
	var completed []TaskRecord
	for _, t := range rs.Tasks {
		if t.Status == TaskStatusCompleted {
			completed = append(completed, t)
		}
	}
	return completed
}

// FailedTask returns the innermost task that failed, or nil.
func (rs *RunState) FailedTask() *TaskRecord {
	var failed *TaskRecord
	for i := range rs.Tasks {
		if rs.Tasks[i].Status == TaskStatusFailed {
			failed = &rs.Tasks[i]
		}
	}
	return failed
}
