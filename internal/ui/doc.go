// Package ui provides styled output for the easyip one-shot commands.
//
// Unlike the interactive monitor in internal/tui, these components render
// once and return: a Header before the command runs, step lines while it
// runs, and a Result box at the end.
//
// # Components
//
//   - Header: command banner with its parameters
//   - Runner: header, step lines, progress bar and result for multi-step
//     commands such as configure and diag
//   - Result: success, failure or warning box
//   - Confirm: warning box plus a typed confirmation
//
// Example:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:   "Device Configuration",
//	    Command: "easyip configure a0:29:19:3e:ab:91",
//	    Steps:   []string{"Validate settings", "Send configuration"},
//	})
//	err := runner.Run(func(onStep ui.StepCallback) ([]ui.Param, error) {
//	    onStep(1, ui.StepRunning, "")
//	    // ...
//	    onStep(1, ui.StepComplete, "")
//	    return nil, nil
//	})
//
// # Logging
//
// zap output goes to stderr and is controlled by --log-level or the
// EASYIP_LOG_LEVEL environment variable, so it never interleaves with this
// package's stdout rendering.
package ui
