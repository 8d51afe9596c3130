// Package ui provides terminal output components for the navien CLI.
//
// Components are rendered with Lipgloss and follow a "run once and exit"
// pattern: they print polished output but never take over the terminal.
//
//   - Header: command banner with ordered parameters
//   - Progress: step list with a bar for the relay round trip
//   - Result: success, failure and warning boxes
//   - RenderState: the decoded controller status
//
// Runner wires them together for multi-step commands:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Set Room Temperature",
//	    Command:   "navien set room-heat 21",
//	    StepNames: []string{"Log in", "Find controller", "Read status", "Send command"},
//	})
//	_, err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Detail, error) {
//	    onStep(1, ui.StepRunning, "")
//	    // ...
//	    onStep(1, ui.StepComplete, "")
//	    return nil, nil
//	})
//
// Logging stays silent unless NAVIEN_LOG_LEVEL is set, so zap output never
// interleaves with the rendered boxes.
package ui
