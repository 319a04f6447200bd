package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/postquery/internal/logging"
)

// setupLogging builds the session logger from config and the --debug flag
// and stores it, with a fresh trace ID, in the command context.
func setupLogging(cmd *cobra.Command, s *session) logging.LogPathResult {
	loggingCfg := logging.Config{
		Level:  s.cfg.Logging.Level,
		Format: s.cfg.Logging.Format,
		File:   s.cfg.Logging.File,
		Output: logging.OutputStderr,
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Caller = true
	}

	switch {
	case loggingCfg.File != "":
		loggingCfg.Output = logging.OutputFile
	case wantsTUI(cmd):
		// The UI owns the terminal.
		loggingCfg.Output = logging.OutputDiscard
	}

	result := logging.NewLoggerWithPath(loggingCfg)
	s.logger = logging.ComponentLogger(result.Logger, "cli")

	if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	} else if result.UsingFile && debug {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = s.logger.WithContext(ctx)
	cmd.SetContext(ctx)

	s.logger.Debug().Ctx(ctx).Str("command", cmd.Name()).Str("endpoint", s.cfg.Endpoint).Msg("command started")

	return result
}

// cleanupLogging closes the log file handle.
func cleanupLogging(logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
