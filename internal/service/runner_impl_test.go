package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func shell(script string) Command {
	return Command{Name: "sh", Args: []string{"-c", script}}
}

func TestExecRunner_Run(t *testing.T) {
	runner := NewCommandRunner(zap.NewNop())

	t.Run("Should stream non-empty lines from stdout and stderr", func(t *testing.T) {
		var lines []string
		err := runner.Run(context.Background(), shell("echo one; echo; echo two >&2; echo '   '; echo three"), func(line string) {
			lines = append(lines, line)
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"one", "two", "three"}, lines)
	})
	t.Run("Should report exit code and last output lines", func(t *testing.T) {
		err := runner.Run(context.Background(), shell("echo building; echo broken >&2; exit 3"), nil)
		var cmdErr *CommandError
		require.True(t, errors.As(err, &cmdErr))
		assert.Equal(t, 3, cmdErr.ExitCode)
		assert.Contains(t, cmdErr.Command, "sh -c")
		assert.ElementsMatch(t, []string{"building", "broken"}, cmdErr.Output)
		assert.Contains(t, err.Error(), "exit code 3")
		assert.Contains(t, err.Error(), "broken")
	})
	t.Run("Should keep only the tail of long output", func(t *testing.T) {
		err := runner.Run(context.Background(), shell("for i in $(seq 1 25); do echo line$i; done; exit 1"), nil)
		var cmdErr *CommandError
		require.True(t, errors.As(err, &cmdErr))
		require.Len(t, cmdErr.Output, DefaultTailLines)
		assert.Equal(t, "line25", cmdErr.Output[DefaultTailLines-1])
	})
	t.Run("Should truncate an over-long line instead of failing", func(t *testing.T) {
		var lines []string
		script := "head -c 2097152 /dev/zero | tr '\\0' a; echo; echo done"
		err := runner.Run(context.Background(), shell(script), func(line string) {
			lines = append(lines, line)
		})
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Len(t, lines[0], maxLineSize)
		assert.Equal(t, strings.Repeat("a", 16), lines[0][:16])
		assert.Equal(t, "done", lines[1])
	})
	t.Run("Should forward a last line without a newline", func(t *testing.T) {
		var lines []string
		err := runner.Run(context.Background(), shell("printf 'one\\ntwo'"), func(line string) {
			lines = append(lines, line)
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, lines)
	})
	t.Run("Should run in the given directory with extra env", func(t *testing.T) {
		dir := t.TempDir()
		var lines []string
		cmd := shell(`pwd; echo "$PLUGINPUB_TEST"`)
		cmd.Dir = dir
		cmd.Env = []string{"PLUGINPUB_TEST=hello"}
		require.NoError(t, runner.Run(context.Background(), cmd, func(line string) {
			lines = append(lines, line)
		}))
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], dir)
		assert.Equal(t, "hello", lines[1])
	})
	t.Run("Should fail when the binary does not exist", func(t *testing.T) {
		err := runner.Run(context.Background(), Command{Name: "pluginpub-no-such-binary"}, nil)
		assert.ErrorContains(t, err, "failed to start")
	})
	t.Run("Should stop the process when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		start := time.Now()
		err := runner.Run(ctx, shell("sleep 30"), nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Less(t, time.Since(start), 10*time.Second)
	})
}

func TestExecRunner_Start(t *testing.T) {
	t.Run("Should close the line channel when the process exits", func(t *testing.T) {
		runner := NewCommandRunner(nil)
		p, err := runner.Start(context.Background(), shell("echo a; echo b"))
		require.NoError(t, err)
		var lines []string
		for line := range p.Lines() {
			lines = append(lines, line)
		}
		assert.Equal(t, []string{"a", "b"}, lines)
		assert.NoError(t, p.Wait())
		assert.NoError(t, p.Wait())
	})
	t.Run("Should drain unread output on Wait", func(t *testing.T) {
		runner := NewCommandRunner(nil)
		p, err := runner.Start(context.Background(), shell("for i in $(seq 1 100); do echo $i; done"))
		require.NoError(t, err)
		assert.NoError(t, p.Wait())
	})
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "npm", Command{Name: "npm"}.String())
	assert.Equal(t, "git push --follow-tags", Command{Name: "git", Args: []string{"push", "--follow-tags"}}.String())
}
