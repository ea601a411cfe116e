package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/spf13/afero"
)

const (
	// StateSchemaVersion defines the current schema version for run records
	StateSchemaVersion = "1.0.0"
	// StateFilePermissions defines the permissions for run records
	StateFilePermissions = 0600
	// StateDirPermissions defines the permissions for the state directory
	StateDirPermissions = 0700
	// StateDirName is the directory under .git that holds run records
	StateDirName = "pluginpub"
)

// ErrNoRunState is returned when no run has been recorded yet.
var ErrNoRunState = errors.New("no release run recorded")

// StateRepository persists the record of publish runs.
type StateRepository interface {
	Save(ctx context.Context, state *domain.RunState) error
	Load(ctx context.Context, runID string) (*domain.RunState, error)
	LoadLatest(ctx context.Context) (*domain.RunState, error)
}

// StateMetadata contains metadata about the state file
type StateMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	Checksum      string    `json:"checksum"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StateWrapper wraps the run record with metadata
type StateWrapper struct {
	Metadata StateMetadata    `json:"metadata"`
	State    *domain.RunState `json:"state"`
}

// JSONStateRepository implements StateRepository with one JSON file per run.
type JSONStateRepository struct {
	fs       afero.Fs
	stateDir string
	mu       sync.RWMutex
}

// NewJSONStateRepository creates a state repository rooted at stateDir.
func NewJSONStateRepository(fs afero.Fs, stateDir string) StateRepository {
	if stateDir == "" {
		stateDir = filepath.Join(".git", StateDirName)
	}
	return &JSONStateRepository{
		fs:       fs,
		stateDir: stateDir,
	}
}

// Save writes the run record atomically and points latest.txt at it.
func (r *JSONStateRepository) Save(ctx context.Context, state *domain.RunState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil || state.RunID == "" {
		return fmt.Errorf("run state must have a run id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fs.MkdirAll(r.stateDir, StateDirPermissions); err != nil {
		return fmt.Errorf("failed to ensure state directory %s: %w", r.stateDir, err)
	}
	stateData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}
	wrapper := StateWrapper{
		Metadata: StateMetadata{
			SchemaVersion: StateSchemaVersion,
			Checksum:      checksum(stateData),
			CreatedAt:     state.StartedAt,
			UpdatedAt:     time.Now(),
		},
		State: state,
	}
	data, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state wrapper: %w", err)
	}
	filename := r.stateFilename(state.RunID)
	if err := r.writeAtomic(filename, data); err != nil {
		return err
	}
	if err := r.writeAtomic(r.latestLink(), []byte(filepath.Base(filename))); err != nil {
		return fmt.Errorf("failed to update latest link: %w", err)
	}
	return nil
}

// Load reads and validates the record of a single run.
func (r *JSONStateRepository) Load(ctx context.Context, runID string) (*domain.RunState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" || strings.ContainsAny(runID, `/\`) || strings.Contains(runID, "..") {
		return nil, fmt.Errorf("invalid run id: %q", runID)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load(runID)
}

// LoadLatest returns the most recently saved run.
func (r *JSONStateRepository) LoadLatest(ctx context.Context) (*domain.RunState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, err := afero.ReadFile(r.fs, r.latestLink())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoRunState
		}
		return nil, fmt.Errorf("failed to read latest link: %w", err)
	}
	target := strings.TrimSpace(string(data))
	runID := extractRunID(target)
	if runID == "" {
		return nil, fmt.Errorf("invalid latest link target: %s", target)
	}
	return r.load(runID)
}

func (r *JSONStateRepository) load(runID string) (*domain.RunState, error) {
	data, err := afero.ReadFile(r.fs, r.stateFilename(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("state not found for run %s: %w", runID, ErrNoRunState)
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	var wrapper StateWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state wrapper: %w", err)
	}
	if wrapper.Metadata.SchemaVersion != StateSchemaVersion {
		return nil, fmt.Errorf("incompatible schema version: expected %s, got %s",
			StateSchemaVersion, wrapper.Metadata.SchemaVersion)
	}
	if wrapper.State == nil {
		return nil, fmt.Errorf("state file for run %s is empty", runID)
	}
	stateData, err := json.Marshal(wrapper.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state for checksum validation: %w", err)
	}
	if wrapper.Metadata.Checksum != checksum(stateData) {
		return nil, fmt.Errorf("state checksum mismatch: data may be corrupted")
	}
	return wrapper.State, nil
}

func (r *JSONStateRepository) writeAtomic(filename string, data []byte) error {
	tempFile := filename + ".tmp"
	if err := afero.WriteFile(r.fs, tempFile, data, StateFilePermissions); err != nil {
		return fmt.Errorf("failed to write %s: %w", tempFile, err)
	}
	if err := r.fs.Rename(tempFile, filename); err != nil {
		_ = r.fs.Remove(tempFile)
		return fmt.Errorf("failed to rename %s: %w", tempFile, err)
	}
	return nil
}

func (r *JSONStateRepository) stateFilename(runID string) string {
	return filepath.Join(r.stateDir, fmt.Sprintf("run-%s.json", runID))
}

func (r *JSONStateRepository) latestLink() string {
	return filepath.Join(r.stateDir, "latest.txt")
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// extractRunID extracts the run id from a run record filename
func extractRunID(filename string) string {
	base := filepath.Base(filename)
	if len(base) > 9 && strings.HasPrefix(base, "run-") && strings.HasSuffix(base, ".json") {
		return base[4 : len(base)-5]
	}
	return ""
}
