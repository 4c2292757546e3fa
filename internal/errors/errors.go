package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrBusy              = errors.New("playback transition already in flight")
	ErrNoTrack           = errors.New("no track loaded")
	ErrNoPrevious        = errors.New("no previous track")
	ErrServerUnreachable = errors.New("server unreachable")
	ErrCatalogEmpty      = errors.New("catalog is empty")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// TapeError wraps an error with a user-friendly suggestion.
type TapeError struct {
	Err        error
	Suggestion string
}

func (e *TapeError) Error() string {
	return e.Err.Error()
}

func (e *TapeError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &TapeError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var tapeErr *TapeError
	if errors.As(err, &tapeErr) && tapeErr.Suggestion != "" {
		return tapeErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrServerUnreachable) || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") || strings.Contains(errStr, "timeout") {
		return "Check that the server is running and server.url in ~/.demotaperc points at it"
	}

	if errors.Is(err, ErrCatalogEmpty) || strings.Contains(errStr, "no tracks") {
		return "The crawl may still be running. Run 'demotape status' to check progress"
	}

	if errors.Is(err, ErrNoPrevious) || strings.Contains(errStr, "no previous track") {
		return "Playback history is empty; skip forward first"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) ||
		strings.Contains(errStr, "config") {
		return "Run 'demotape init' to set up your configuration"
	}

	if strings.Contains(errStr, "server error 5") {
		return "The server is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
