// Package logging builds the zap loggers used across easyip.
//
// Loggers are passed explicitly. Nothing in the protocol or discovery
// packages reaches for a package-level logger, and every constructor that
// takes a *zap.Logger treats nil as a no-op logger.
//
// # Log Levels
//
//   - Debug: Raw datagrams, TLV walks, per-response parse failures
//   - Info: Scan summaries, configuration results, HTTP requests
//   - Warn: Bind fallbacks, unreachable brokers, tracker write failures
//   - Error: Startup failures
//
// # Configuration
//
// The CLI builds one logger from --log-level or EASYIP_LOG_LEVEL:
//
//	logger, err := logging.New(flagLevel)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
// With neither set the logger is silent, so normal command output is
// never interleaved with log lines.
//
// # Protocol Dumps
//
//	logging.RawBytes(logger, "Received datagram", payload,
//	    zap.String("from", addr.String()),
//	)
//
// Dumps are capped at 256 bytes and only rendered when debug is enabled.
package logging
