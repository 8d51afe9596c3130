package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes a multi-step CLI operation
type RunnerConfig struct {
	Title     string   // e.g., "Set Room Temperature"
	Command   string   // e.g., "navien set room-heat 21"
	Params    []Detail // Shown in the header
	StepNames []string

	// Troubleshoot returns tips for a failed run. Nil means no tips.
	Troubleshoot func(error) []string

	Output io.Writer // default: os.Stdout
}

// Runner drives the header, step list and result box for one operation.
type Runner struct {
	config    RunnerConfig
	header    *Header
	progress  *Progress
	output    io.Writer
	startTime time.Time
	width     int
}

// Operation is the work a Runner wraps. It reports progress through onStep
// and returns the details to show on success.
type Operation func(ctx context.Context, onStep StepCallback) ([]Detail, error)

// NewRunner creates a runner for config
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()

	r := &Runner{
		config: config,
		header: NewHeader(config.Title, config.Command, config.Params).SetWidth(width),
		output: config.Output,
		width:  width,
	}
	if len(config.StepNames) > 0 {
		r.progress = NewProgress("", config.StepNames...).SetWidth(width)
	}
	return r
}

// Progress exposes the step tracker, nil when the runner has no steps
func (r *Runner) Progress() *Progress {
	return r.progress
}

// Run prints the header, executes op and prints the result. The error from
// op is returned unchanged.
func (r *Runner) Run(ctx context.Context, op Operation) ([]Detail, error) {
	r.startTime = time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := op(ctx, r.onStep)
	duration := time.Since(r.startTime).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.output)
	if err != nil {
		var tips []string
		if r.config.Troubleshoot != nil {
			tips = r.config.Troubleshoot(err)
		}
		result := NewFailureResult(r.config.Title+" failed", err, tips).SetWidth(r.width)
		_, _ = fmt.Fprintln(r.output, result.Render())
		return nil, err
	}

	details = append(details, D("Duration", duration.String()))
	result := NewSuccessResult(r.config.Title+" complete", details).SetWidth(r.width)
	_, _ = fmt.Fprintln(r.output, result.Render())
	return details, nil
}

func (r *Runner) onStep(stepNumber int, status StepStatus, message string) {
	if r.progress == nil || stepNumber < 1 || stepNumber > r.progress.Total() {
		return
	}
	r.progress.UpdateStep(stepNumber, status, message)

	line := r.progress.renderStepLine(r.progress.Steps[stepNumber-1])
	switch {
	case status.Done():
		_, _ = fmt.Fprintln(r.output, line)
	case status == StepRunning:
		// Overwritten when the step finishes
		_, _ = fmt.Fprint(r.output, line+"\r")
	}
}
