package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "EASYIP_LOG_LEVEL"

// maxDumpBytes caps hex and ASCII dumps.
const maxDumpBytes = 256

// New creates a logger at the given level.
// If level is empty, it checks EASYIP_LOG_LEVEL. If neither is set the
// returned logger discards everything.
//
// Output goes to stderr so that table, CSV and JSON output on stdout stays
// clean for pipes.
func New(level string) (*zap.Logger, error) {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		return zap.NewNop(), nil
	}

	zapLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", level)
	}
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// RawBytes logs a datagram at debug level with hex and ASCII dumps.
func RawBytes(logger *zap.Logger, label string, data []byte, fields ...zap.Field) {
	if logger == nil || !logger.Core().Enabled(zapcore.DebugLevel) {
		return
	}
	fields = append(fields,
		zap.Int("length", len(data)),
		zap.String("hex", Hex(data)),
		zap.String("ascii", ASCII(data)),
	)
	logger.Debug(label, fields...)
}

// HTTPRequest logs a handled HTTP request.
func HTTPRequest(logger *zap.Logger, remoteAddr, method, path string, status int) {
	OrNop(logger).Info("HTTP request",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", status),
	)
}

// WebSocketMessage logs a WebSocket frame.
func WebSocketMessage(logger *zap.Logger, remoteAddr, direction string, messageType int, data []byte) {
	logger = OrNop(logger)
	fields := []zap.Field{
		zap.String("remote_addr", remoteAddr),
		zap.String("direction", direction),
		zap.String("message_type", wsMessageTypeName(messageType)),
		zap.Int("length", len(data)),
	}

	// Text frames are JSON, include the content
	if messageType == 1 && logger.Core().Enabled(zapcore.DebugLevel) {
		fields = append(fields, zap.String("content", string(data)))
	}

	logger.Debug("WebSocket message", fields...)
}

func wsMessageTypeName(msgType int) string {
	switch msgType {
	case 1:
		return "text"
	case 2:
		return "binary"
	case 8:
		return "close"
	case 9:
		return "ping"
	case 10:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", msgType)
	}
}

// Hex returns a hex dump of data, truncated to the first 256 bytes.
func Hex(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > maxDumpBytes {
		return hex.EncodeToString(data[:maxDumpBytes]) + "..."
	}
	return hex.EncodeToString(data)
}

// ASCII returns printable bytes of data with everything else as '.',
// truncated to the first 256 bytes.
func ASCII(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > maxDumpBytes {
		data = data[:maxDumpBytes]
	}

	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}
