package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/pluginpub/pluginpub/internal/output"
	"github.com/pluginpub/pluginpub/internal/repository"
	"github.com/pluginpub/pluginpub/internal/service"
	"go.uber.org/zap"
)

// Task is a titled unit of work. A task either runs its own action or groups subtasks.
type Task struct {
	Title string
	// Skip, when set, is the reason the task does not run.
	Skip     string
	Run      func(ctx context.Context, out service.LineHandler) error
	Subtasks []Task
}

// TaskError reports the task that stopped the pipeline.
type TaskError struct {
	Title string
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task '%s' failed: %v", e.Title, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Pipeline runs tasks strictly in order and stops at the first failure.
// Nothing that already ran is undone.
type Pipeline struct {
	runID     string
	stateRepo repository.StateRepository
	state     *domain.RunState
	renderer  output.Renderer
	logger    *zap.Logger
	tasks     []Task
}

// NewPipeline creates a pipeline with a fresh run id. stateRepo may be nil.
func NewPipeline(stateRepo repository.StateRepository, renderer output.Renderer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.New().String()
	return &Pipeline{
		runID:     runID,
		stateRepo: stateRepo,
		state:     domain.NewRunState(runID),
		renderer:  renderer,
		logger:    logger.With(zap.String("run_id", runID)),
	}
}

// RunID returns the identifier of this run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// State returns the run record updated as tasks progress.
func (p *Pipeline) State() *domain.RunState {
	return p.state
}

// AddTask appends a top-level task.
func (p *Pipeline) AddTask(task Task) {
	p.tasks = append(p.tasks, task)
	p.register(task, strconv.Itoa(len(p.tasks)), 0)
}

func (p *Pipeline) register(task Task, id string, depth int) {
	p.state.AddTask(id, task.Title, depth)
	for i, sub := range task.Subtasks {
		p.register(sub, childID(id, i), depth+1)
	}
}

func childID(parent string, index int) string {
	return parent + "." + strconv.Itoa(index+1)
}

// Execute runs every task. The returned error is a *TaskError for task failures.
func (p *Pipeline) Execute(ctx context.Context) error {
	p.state.Status = domain.RunStatusRunning
	p.saveState(ctx)
	for i, task := range p.tasks {
		if err := p.runTask(ctx, task, strconv.Itoa(i+1), 0); err != nil {
			p.saveState(ctx)
			return err
		}
	}
	p.state.Status = domain.RunStatusCompleted
	p.saveState(ctx)
	return nil
}

func (p *Pipeline) runTask(ctx context.Context, task Task, id string, depth int) error {
	if task.Skip != "" {
		p.skip(task, id, task.Skip)
		p.renderer.TaskSkipped(task.Title, depth, task.Skip)
		p.saveState(ctx)
		return nil
	}
	p.state.MarkTaskStarted(id)
	if len(task.Subtasks) > 0 {
		p.renderer.GroupStarted(task.Title, depth)
		p.saveState(ctx)
		for i, sub := range task.Subtasks {
			if err := p.runTask(ctx, sub, childID(id, i), depth+1); err != nil {
				p.state.MarkTaskFailed(id, err)
				return err
			}
		}
		p.state.MarkTaskCompleted(id)
		p.saveState(ctx)
		return nil
	}
	p.renderer.TaskStarted(task.Title, depth)
	p.saveState(ctx)
	p.logger.Debug("task started", zap.String("task", task.Title))
	err := ctx.Err()
	if err == nil && task.Run != nil {
		err = task.Run(ctx, func(line string) {
			p.renderer.TaskOutput(line)
		})
	}
	if err != nil {
		p.state.MarkTaskFailed(id, err)
		p.renderer.TaskFailed(task.Title, depth, err)
		p.logger.Debug("task failed", zap.String("task", task.Title), zap.Error(err))
		return &TaskError{Title: task.Title, Err: err}
	}
	p.state.MarkTaskCompleted(id)
	p.renderer.TaskCompleted(task.Title, depth)
	p.saveState(ctx)
	return nil
}

func (p *Pipeline) skip(task Task, id, reason string) {
	p.state.MarkTaskSkipped(id, reason)
	for i, sub := range task.Subtasks {
		p.skip(sub, childID(id, i), reason)
	}
}

// saveState persists the run record. Failures are logged only.
func (p *Pipeline) saveState(ctx context.Context) {
	if p.stateRepo == nil {
		return
	}
	if err := p.stateRepo.Save(context.WithoutCancel(ctx), p.state); err != nil {
		p.logger.Warn("failed to save run state", zap.Error(err))
	}
}
