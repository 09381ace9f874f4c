package trustreg

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tfkr-ae/trustreg/domain"
)

// WithOptions applies a series of configuration functions to the registry.
// Each option function can modify the registry and return an error if it fails.
//
// Parameters:
//   - options: Variadic list of configuration functions
//
// Returns:
//   - error: First error encountered from any option function
func (r *Registry) WithOptions(options ...func(*Registry) error) error {
	for _, option := range options {
		err := option(r)
		if err != nil {
			return fmt.Errorf("applying option on registry : %w", err)
		}
	}
	return nil
}

// WithSettings sets the settings repository the registry reads and writes through.
func WithSettings(settings domain.SettingsRepository) func(*Registry) error {
	return func(r *Registry) error {
		if settings == nil {
			return errors.New("settings repository is nil")
		}
		r.Settings = settings
		return nil
	}
}

// WithLogger sets the logger used by the registry. A nil logger discards output.
func WithLogger(logger *slog.Logger) func(*Registry) error {
	return func(r *Registry) error {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		r.Logger = logger
		return nil
	}
}
