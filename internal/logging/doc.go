// Package logging constructs the process slog.Logger, with a human-friendly
// console handler for interactive runs and a JSON handler for log capture.
package logging
