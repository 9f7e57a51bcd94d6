package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// Step is one stage of a multi-step command.
type Step struct {
	Number  int // 1-based
	Name    string
	Status  StepStatus
	Message string // e.g., "bound to 0.0.0.0:10669"
}

func (s Step) done() bool {
	return s.Status == StepComplete || s.Status == StepSkipped
}

// StepCallback reports progress on step number (1-based).
type StepCallback func(step int, status StepStatus, message string)

// Operation is the work a Runner wraps. The returned details are shown in
// the success box.
type Operation func(onStep StepCallback) ([]Param, error)

// RunnerConfig describes a command for the Runner.
type RunnerConfig struct {
	Title   string
	Command string
	Params  []Param
	Steps   []string

	// Troubleshoot returns tips for a failure. Nil shows none.
	Troubleshoot func(err error) []string

	Output io.Writer // Defaults to os.Stdout
	Width  int       // Defaults to the terminal width
}

// Runner prints a header, a line per step as it finishes, a progress bar
// and a result box.
type Runner struct {
	config RunnerConfig
	steps  []Step
	bar    progress.Model
	out    io.Writer
	width  int
}

// NewRunner creates a runner for config.
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := config.Width
	if width == 0 {
		width = GetTerminalWidth()
	}

	steps := make([]Step, len(config.Steps))
	for i, name := range config.Steps {
		steps[i] = Step{Number: i + 1, Name: name}
	}

	return &Runner{
		config: config,
		steps:  steps,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(min(max(width-20, 20), 50))),
		out:    config.Output,
		width:  width,
	}
}

// Steps returns a copy of the current step states.
func (r *Runner) Steps() []Step {
	return append([]Step(nil), r.steps...)
}

// Percent is the share of steps completed or skipped.
func (r *Runner) Percent() float64 {
	if len(r.steps) == 0 {
		return 1
	}
	done := 0
	for _, s := range r.steps {
		if s.done() {
			done++
		}
	}
	return float64(done) / float64(len(r.steps))
}

// Run executes op between the header and the result box and returns its
// error.
func (r *Runner) Run(op Operation) error {
	start := time.Now()

	header := NewHeader(r.config.Title, r.config.Command, r.config.Params...).SetWidth(r.width)
	fmt.Fprintln(r.out, header.Render())
	fmt.Fprintln(r.out)

	details, err := op(r.onStep)
	duration := time.Since(start).Round(time.Millisecond)

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.renderBar())
	fmt.Fprintln(r.out)

	if err != nil {
		var tips []string
		if r.config.Troubleshoot != nil {
			tips = r.config.Troubleshoot(err)
		}
		fmt.Fprintln(r.out, NewFailureResult(r.config.Title+" failed", err, tips).SetWidth(r.width).Render())
		return err
	}

	details = append(details, Param{Key: "Duration", Value: duration.String()})
	fmt.Fprintln(r.out, NewSuccessResult(r.config.Title+" complete", details...).SetWidth(r.width).Render())
	return nil
}

func (r *Runner) onStep(step int, status StepStatus, message string) {
	if step < 1 || step > len(r.steps) {
		return
	}
	s := &r.steps[step-1]
	s.Status = status
	s.Message = message

	switch status {
	case StepRunning:
		// Overwritten when the step finishes.
		fmt.Fprint(r.out, r.renderStepLine(*s)+"\r")
	case StepComplete, StepFailed, StepSkipped:
		fmt.Fprintln(r.out, r.renderStepLine(*s))
	}
}

func (r *Runner) renderBar() string {
	done := 0
	for _, s := range r.steps {
		if s.done() {
			done++
		}
	}
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d]", r.bar.ViewAs(r.Percent()), r.Percent()*100, done, len(r.steps)))
}

func (r *Runner) renderStepLine(step Step) string {
	look := stepLook[step.Status]

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", step.Number, len(r.steps))
	b.WriteString(look.style.Render(step.Name))
	b.WriteString(strings.Repeat(" ", max(45-lipgloss.Width(step.Name), 1)))
	b.WriteString(look.style.Render(look.marker))
	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(noteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}
