package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Renderer receives task lifecycle events from the pipeline.
type Renderer interface {
	GroupStarted(title string, depth int)
	TaskStarted(title string, depth int)
	TaskOutput(line string)
	TaskCompleted(title string, depth int)
	TaskSkipped(title string, depth int, reason string)
	TaskFailed(title string, depth int, err error)
}

const spinnerInterval = 100 * time.Millisecond

// TaskRenderer prints a task list. On a terminal the running task shows a
// spinner with its latest output line; otherwise every event is a plain line.
type TaskRenderer struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols Symbols

	mu      sync.Mutex
	spin    *spinner.Spinner
	title   string
	depth   int
	lastOut string

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	dim    *color.Color
}

// NewTaskRenderer creates a renderer writing to out.
func NewTaskRenderer(out io.Writer, caps TerminalCapabilities) *TaskRenderer {
	r := &TaskRenderer{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
		green:   color.New(color.FgGreen),
		red:     color.New(color.FgRed),
		yellow:  color.New(color.FgYellow),
		cyan:    color.New(color.FgCyan, color.Bold),
		dim:     color.New(color.Faint),
	}
	if !caps.SupportsColor {
		for _, c := range []*color.Color{r.green, r.red, r.yellow, r.cyan, r.dim} {
			c.DisableColor()
		}
	} else {
		for _, c := range []*color.Color{r.green, r.red, r.yellow, r.cyan, r.dim} {
			c.EnableColor()
		}
	}
	return r
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func (r *TaskRenderer) GroupStarted(title string, depth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s%s %s\n", indent(depth), r.cyan.Sprint(r.symbols.Pointer), title)
}

func (r *TaskRenderer) TaskStarted(title string, depth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.title, r.depth, r.lastOut = title, depth, ""
	if !r.caps.IsTTY {
		fmt.Fprintf(r.out, "%s%s %s\n", indent(depth), r.dim.Sprint(r.symbols.Pointer), title)
		return
	}
	s := spinner.New(spinner.CharSets[r.symbols.SpinnerSet], spinnerInterval, spinner.WithWriter(r.out))
	s.Prefix = indent(depth)
	s.Suffix = " " + title
	r.spin = s
	s.Start()
}

func (r *TaskRenderer) TaskOutput(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastOut = line
	if r.spin == nil {
		fmt.Fprintf(r.out, "%s  %s\n", indent(r.depth), r.dim.Sprint(r.symbols.Output+" "+line))
		return
	}
	r.spin.Lock()
	r.spin.Suffix = " " + r.title + " " + r.dim.Sprint(r.symbols.Output+" "+r.truncate(line))
	r.spin.Unlock()
}

func (r *TaskRenderer) TaskCompleted(title string, depth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	fmt.Fprintf(r.out, "%s%s %s\n", indent(depth), r.green.Sprint(r.symbols.Success), title)
}

func (r *TaskRenderer) TaskSkipped(title string, depth int, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	line := fmt.Sprintf("%s%s %s", indent(depth), r.yellow.Sprint(r.symbols.Skipped), title)
	if reason != "" {
		line += " " + r.dim.Sprintf("[%s]", reason)
	}
	fmt.Fprintln(r.out, line)
}

func (r *TaskRenderer) TaskFailed(title string, depth int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSpinner()
	fmt.Fprintf(r.out, "%s%s %s\n", indent(depth), r.red.Sprint(r.symbols.Failure), title)
	if r.caps.IsTTY && r.lastOut != "" {
		fmt.Fprintf(r.out, "%s  %s\n", indent(depth), r.dim.Sprint(r.symbols.Output+" "+r.lastOut))
	}
	if err != nil {
		first, _, _ := strings.Cut(err.Error(), "\n")
		fmt.Fprintf(r.out, "%s  %s\n", indent(depth), r.red.Sprint(first))
	}
}

func (r *TaskRenderer) stopSpinner() {
	if r.spin != nil {
		r.spin.Stop()
		r.spin = nil
	}
}

func (r *TaskRenderer) truncate(line string) string {
	limit := r.caps.Width - len(indent(r.depth)) - len(r.title) - 8
	if r.caps.Width == 0 || limit <= 0 {
		return line
	}
	runes := []rune(line)
	if len(runes) <= limit {
		return line
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
