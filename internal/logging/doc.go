// Package logging provides structured logging for webstash using slog.
//
// The package supports a colorized text handler for terminals, JSON output,
// verbosity-derived levels and helpers for carrying a logger through a
// context. Attribute values whose keys look sensitive (password, token,
// secret) are masked by the text handler.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  slog.LevelInfo,
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	ctx = logging.NewContext(ctx, logger)
//	logging.FromContext(ctx).Debug("restored", "backend", "localStorage", "written", 9)
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework:
//
//	logger := logging.ForTest(t)
package logging
