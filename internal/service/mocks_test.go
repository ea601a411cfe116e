package service

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockCommandRunner struct {
	mock.Mock
}

func (m *mockCommandRunner) Start(ctx context.Context, cmd Command) (Process, error) {
	args := m.Called(ctx, cmd)
	if p := args.Get(0); p != nil {
		return p.(Process), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCommandRunner) Run(ctx context.Context, cmd Command, onLine LineHandler) error {
	args := m.Called(ctx, cmd)
	for _, line := range args.Get(0).([]string) {
		emit(onLine, line)
	}
	return args.Error(1)
}
