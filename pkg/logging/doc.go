// Package logging provides structured logging configuration for echod.
//
// This package wraps log/slog so every component logs the same way. It
// supports configurable log levels and text or JSON output.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatJSON,
//	})
//
//	logger.Info("server is running", "addr", "127.0.0.1:8080")
//	logger.Error("error handling client", "error", err)
//
// # Integration
//
// Components accept a *slog.Logger through an option or setter. When none is
// provided they fall back to Nop, which discards everything.
package logging
