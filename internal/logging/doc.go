// Package logger provides structured logging for cybs3 CLI commands.
//
// The logger supports multiple verbosity levels controlled by command-line
// flags. Output is formatted with level prefixes ("[info]", "[warn]", ...)
// colored with github.com/fatih/color.
//
// # Verbosity Levels
//
// Logging behavior is controlled by two flags:
//
//   - --verbose: shows info messages
//   - --debug: shows debug messages
//
// Warnings and errors are always shown, regardless of flags.
//
// # Log Methods
//
//	Logger.Infof()          // Shown with --verbose
//	Logger.Debugf()         // Shown only with --debug
//	Logger.Warnf()          // Always shown, written to stderr
//	Logger.Errorf()         // Always shown, written to stderr
//	Logger.ErrorfAndReturn() // Errorf, then returns the same message as an error
//
// # Usage
//
// Create a logger with the desired verbosity:
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("uploading %d bytes", n)
//
// Commands create the global Logger in cmd.RootCmd's PersistentPreRun and
// use it from there.
package logger
