package domain

import "errors"

var (
	ErrInvalidVersion    = errors.New("version should be a valid semver version")
	ErrNotOnBranch       = errors.New("not on release branch")
	ErrDirtyWorkingTree  = errors.New("unclean working tree")
	ErrRemoteDiverged    = errors.New("remote history differ")
	ErrTagExists         = errors.New("release tag already exists")
	ErrReleaseInProgress = errors.New("another release is in progress")
)

// PreconditionError carries the message shown to the user for a failed git
// check while still matching its sentinel with errors.Is.
type PreconditionError struct {
	Message string
	Err     error
}

func (e *PreconditionError) Error() string {
	return e.Message
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}
