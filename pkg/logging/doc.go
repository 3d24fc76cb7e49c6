// Package logging provides structured logging configuration for msm.
//
// This package wraps log/slog so every component logs the same way. Levels
// follow the ordering DEBUG < INFO (= LOG) < WARN < ERROR < NONE, where NONE
// silences the logger entirely and is the default.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("WARN"),
//	    Format: logging.FormatText,
//	})
//
//	logger.Warn("definition not found", "path", modulePath)
//
// # Integration
//
// Components accept a *slog.Logger through an option. If no logger is
// provided, they use logging.Nop().
package logging
