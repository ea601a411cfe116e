package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// waitDelay bounds how long output pipes stay open after a cancelled process was killed.
const waitDelay = 5 * time.Second

type execRunner struct {
	logger    *zap.Logger
	tailLines int
}

// NewCommandRunner returns a CommandRunner backed by os/exec.
func NewCommandRunner(logger *zap.Logger) CommandRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &execRunner{logger: logger, tailLines: DefaultTailLines}
}

func (r *execRunner) Start(ctx context.Context, c Command) (Process, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = errW
	r.logger.Debug("starting command", zap.String("command", c.String()), zap.String("dir", c.Dir))
	if err := cmd.Start(); err != nil {
		_ = outW.Close()
		_ = errW.Close()
		return nil, fmt.Errorf("failed to start %s: %w", c, err)
	}
	p := &process{
		ctx:     ctx,
		command: c,
		lines:   make(chan string),
		done:    make(chan struct{}),
		tail:    newTail(r.tailLines),
	}
	var g errgroup.Group
	g.Go(func() error { return p.scan(outR) })
	g.Go(func() error { return p.scan(errR) })
	go func() {
		p.waitErr = cmd.Wait()
		_ = outW.Close()
		_ = errW.Close()
		p.scanErr = g.Wait()
		close(p.lines)
		close(p.done)
		r.logger.Debug("command exited", zap.String("command", c.String()), zap.Error(p.waitErr))
	}()
	return p, nil
}

func (r *execRunner) Run(ctx context.Context, c Command, onLine LineHandler) error {
	p, err := r.Start(ctx, c)
	if err != nil {
		return err
	}
	for line := range p.Lines() {
		emit(onLine, line)
	}
	return p.Wait()
}

type process struct {
	ctx     context.Context
	command Command
	lines   chan string
	done    chan struct{}
	tail    *tail
	waitErr error
	scanErr error
	once    sync.Once
	err     error
}

func (p *process) Lines() <-chan string {
	return p.lines
}

func (p *process) Wait() error {
	p.once.Do(func() {
		for range p.lines {
		}
		<-p.done
		p.err = p.result()
	})
	return p.err
}

func (p *process) result() error {
	if ctxErr := p.ctx.Err(); ctxErr != nil && p.waitErr != nil {
		return fmt.Errorf("%s: %w", p.command, ctxErr)
	}
	if p.waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(p.waitErr, &exitErr) {
			return &CommandError{
				Command:  p.command.String(),
				ExitCode: exitErr.ExitCode(),
				Output:   p.tail.lines(),
				Err:      p.waitErr,
			}
		}
		return fmt.Errorf("%s: %w", p.command, p.waitErr)
	}
	if p.scanErr != nil {
		return fmt.Errorf("failed to read output of %s: %w", p.command, p.scanErr)
	}
	return nil
}

// scan forwards non-empty lines from r, cut to maxLineSize bytes. On a read
// error the rest of r is discarded so the writing side never blocks.
func (p *process) scan(r io.Reader) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	for {
		chunk, err := reader.ReadSlice('\n')
		if room := maxLineSize - len(line); room > 0 {
			line = append(line, chunk[:min(len(chunk), room)]...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		p.forward(string(line))
		line = line[:0]
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			_, _ = io.Copy(io.Discard, r)
			return err
		}
	}
}

func (p *process) forward(line string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}
	p.tail.add(line)
	p.lines <- line
}

type tail struct {
	mu  sync.Mutex
	max int
	buf []string
}

func newTail(max int) *tail {
	return &tail{max: max}
}

func (t *tail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, line)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
}

func (t *tail) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.buf...)
}
