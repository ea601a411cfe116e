package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/pluginpub/pluginpub/internal/repository"
	"github.com/pluginpub/pluginpub/internal/service"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
)

type mockGitRepository struct {
	mock.Mock
}

func (m *mockGitRepository) CurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) IsClean(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepository) BehindCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockGitRepository) RemoteURL(ctx context.Context, remote string) (string, error) {
	args := m.Called(ctx, remote)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) CommitsBetween(ctx context.Context, from, to string) ([]domain.Commit, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Commit), args.Error(1)
}

func (m *mockGitRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepository) GitDir(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockStateRepository struct {
	mock.Mock
}

func (m *mockStateRepository) Save(ctx context.Context, state *domain.RunState) error {
	return m.Called(ctx, state).Error(0)
}

func (m *mockStateRepository) Load(ctx context.Context, runID string) (*domain.RunState, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunState), args.Error(1)
}

func (m *mockStateRepository) LoadLatest(ctx context.Context) (*domain.RunState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunState), args.Error(1)
}

type mockReleaseRepository struct {
	mock.Mock
}

func (m *mockReleaseRepository) CreateRelease(ctx context.Context, req repository.ReleaseRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// commandRecorder stands in for git and npm, recording every invocation in order.
type commandRecorder struct {
	mu       sync.Mutex
	fs       afero.Fs
	manifest string
	calls    []string
	failOn   map[string]error
}

func newCommandRecorder(fs afero.Fs, manifest string) *commandRecorder {
	return &commandRecorder{fs: fs, manifest: manifest, failOn: map[string]error{}}
}

func (r *commandRecorder) record(out service.LineHandler, call string) error {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	err := r.failOn[call]
	r.mu.Unlock()
	if out != nil {
		out("ran " + call)
	}
	return err
}

func (r *commandRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *commandRecorder) Fetch(_ context.Context, out service.LineHandler) error {
	return r.record(out, "git fetch")
}

func (r *commandRecorder) Add(_ context.Context, paths []string, out service.LineHandler) error {
	return r.record(out, "git add "+strings.Join(paths, " "))
}

func (r *commandRecorder) Commit(_ context.Context, message string, out service.LineHandler) error {
	return r.record(out, "git commit -m "+message)
}

func (r *commandRecorder) Push(_ context.Context, out service.LineHandler) error {
	return r.record(out, "git push")
}

func (r *commandRecorder) PushFollowTags(_ context.Context, out service.LineHandler) error {
	return r.record(out, "git push --follow-tags")
}

func (r *commandRecorder) Install(_ context.Context, out service.LineHandler) error {
	return r.record(out, "npm install")
}

func (r *commandRecorder) Test(_ context.Context, out service.LineHandler) error {
	return r.record(out, "npm test")
}

// Version rewrites the manifest version like npm does.
func (r *commandRecorder) Version(_ context.Context, version string, out service.LineHandler) error {
	if err := r.record(out, "npm version "+version); err != nil {
		return err
	}
	content := fmt.Sprintf(`{"name": "cordova-plugin-acme", "version": %q}`, version)
	return afero.WriteFile(r.fs, r.manifest, []byte(content), 0644)
}

func (r *commandRecorder) Publish(_ context.Context, out service.LineHandler) error {
	return r.record(out, "npm publish")
}

// recordingRenderer captures renderer events as strings.
type recordingRenderer struct {
	events []string
}

func (r *recordingRenderer) GroupStarted(title string, depth int) {
	r.events = append(r.events, fmt.Sprintf("group %d %s", depth, title))
}

func (r *recordingRenderer) TaskStarted(title string, depth int) {
	r.events = append(r.events, fmt.Sprintf("start %d %s", depth, title))
}

func (r *recordingRenderer) TaskOutput(line string) {
	r.events = append(r.events, "output "+line)
}

func (r *recordingRenderer) TaskCompleted(title string, depth int) {
	r.events = append(r.events, fmt.Sprintf("done %d %s", depth, title))
}

func (r *recordingRenderer) TaskSkipped(title string, depth int, reason string) {
	r.events = append(r.events, fmt.Sprintf("skip %d %s [%s]", depth, title, reason))
}

func (r *recordingRenderer) TaskFailed(title string, depth int, err error) {
	r.events = append(r.events, fmt.Sprintf("fail %d %s: %v", depth, title, err))
}
