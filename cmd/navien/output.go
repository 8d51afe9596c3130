package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/muurk/navien/internal/config"
	"github.com/muurk/navien/internal/protocol"
	"github.com/muurk/navien/internal/relay"
	"github.com/muurk/navien/internal/session"
)

func outputFormat() string {
	switch f := strings.ToLower(viper.GetString(keyOutput)); f {
	case config.FormatJSON:
		return f
	default:
		return config.FormatText
	}
}

func jsonOutput() bool {
	return outputFormat() == config.FormatJSON
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// troubleshoot returns tips for err, shown in failure boxes
func troubleshoot(err error) []string {
	var rangeErr *protocol.RangeError
	var frameErr *protocol.FrameError

	switch {
	case errors.As(err, &rangeErr):
		return []string{
			fmt.Sprintf("The controller accepts %s temperatures from %.1f to %.1f °C", rangeErr.Zone, rangeErr.Min, rangeErr.Max),
			"Run 'navien status' to see the current ranges",
		}
	case errors.As(err, &frameErr) && frameErr.Retryable():
		return []string{
			"The relay could not reach the controller this time",
			"Wait a few seconds and run the command again",
		}
	case errors.Is(err, protocol.ErrTruncatedFrame):
		return []string{
			"The relay closed the connection before a full status frame arrived",
			"Check that the controller is online in the NaviLink app",
		}
	case errors.Is(err, session.ErrInvalidIdentification):
		return []string{"User ID and controller MAC must not contain '$' or line breaks"}
	case errors.Is(err, protocol.ErrUnknownOperation):
		return []string{"Valid operations: " + strings.Join(protocol.OperationNames(), ", ")}
	}

	if _, ok := relay.KindOf(err); ok {
		var tips []string
		for _, line := range strings.Split(relay.Hint(err), "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "•"))
			if line != "" && line != "Troubleshooting:" {
				tips = append(tips, line)
			}
		}
		return tips
	}
	return nil
}

// hintFor returns the plain text hint printed after a command error
func hintFor(err error) string {
	tips := troubleshoot(err)
	if len(tips) == 0 {
		return ""
	}
	return "  - " + strings.Join(tips, "\n  - ")
}

// shownError marks an error whose failure box was already printed
type shownError struct {
	err error
}

func (e *shownError) Error() string { return e.err.Error() }
func (e *shownError) Unwrap() error { return e.err }
