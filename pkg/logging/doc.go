// Package logging provides structured logging configuration for stubd.
//
// This package wraps log/slog so every component logs the same way. It supports
// configurable log levels and output formats.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("stub server started", "port", 8080)
//
// # Integration
//
// Components accept a *slog.Logger through an option or setter. When none is
// provided they fall back to logging.Nop().
package logging
