// Package logging provides structured logging for the navien client.
//
// This package wraps zap logger with convenience functions for the logging
// patterns used by the relay client, the device session and the bridge.
// Logging is silent unless a level is set with --log-level or the
// NAVIEN_LOG_LEVEL environment variable.
//
// # Log Levels
//
//   - Debug: Relay requests, raw status frames (hex + ascii), command frames
//   - Info: Session connects and closes, bridge clients
//   - Warn: Failure markers, unsupported room data, dropped clients
//   - Error: Bridge startup failures
//
// # Structured Logging
//
//	logging.Info("Session connected",
//	    zap.String("mac", mac),
//	    zap.String("device_id", state.DeviceID.String()),
//	)
//
// # Specialized Logging
//
// Connection Logging:
//
//	logging.LogConnection(addr, "identified")
//	logging.LogConnection(addr, "closed")
//
// Relay Logging (passwords and tokens are redacted):
//
//	logging.LogRelayRequest("POST", url, form, "Passwd")
//	logging.LogRelayResponse(url, resp.StatusCode, len(body))
//
// Frame Logging:
//
//	logging.LogRawBytes("Status frame", buf[:n])
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Packages that accept a *zap.Logger option default to GetLogger().
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has
// returned.
package logging
