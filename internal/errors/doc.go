// Package errors provides error handling conventions for the webstash CLI.
//
// It re-exports the constructors and helpers of github.com/cockroachdb/errors
// so packages wrap with context in one style:
//
//	if err != nil {
//	    return errors.Wrap(err, "decrypting container")
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (bad input, wrong password, cancelled)
//   - ExitSystem (2): System-related error (I/O, browser, database)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion. The CLI entry point prints the suggestion and exits with
// [ExitCode]:
//
//	err := errors.NewUserError(codec.ErrDecryption, "Re-run with the correct --password")
//	os.Exit(errors.ExitCode(err))
package errors
