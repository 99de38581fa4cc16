// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/marjacob/setup-terminal/pkg/types"
)

var (
	// ErrInvalidRepository is the sentinel error wrapped by InvalidRepositoryError.
	ErrInvalidRepository = errors.New("invalid repository")
	// ErrInvalidUpdatesURL is the sentinel error wrapped by InvalidUpdatesURLError.
	ErrInvalidUpdatesURL = errors.New("invalid updates url")
	// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
	ErrInvalidLoadOptions = errors.New("invalid load options")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	repositoryPartPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

type (
	// Repository names the GitHub repository releases are fetched from.
	Repository struct {
		// Owner is the user or organization owning the repository.
		Owner string `json:"owner" mapstructure:"owner"`
		// Name is the repository name.
		Name string `json:"name" mapstructure:"name"`
	}

	// InvalidRepositoryError is returned when a Repository field is empty or
	// contains characters GitHub does not allow.
	InvalidRepositoryError struct {
		Field string
		Value string
	}

	// UpdatesURL is the page installers advertise for updates.
	// The zero value is valid and means "use the built-in URL".
	UpdatesURL string

	// InvalidUpdatesURLError is returned when an UpdatesURL is not an absolute
	// http(s) URL.
	InvalidUpdatesURLError struct {
		Value UpdatesURL
	}

	// Config holds the application configuration.
	Config struct {
		// Compiler is the Inno Setup compiler executable.
		Compiler types.FilesystemPath `json:"compiler" mapstructure:"compiler"`
		// CompilerArgs are passed to the compiler ahead of the script path.
		CompilerArgs []string `json:"compiler_args" mapstructure:"compiler_args"`
		// Template overrides the built-in setup script template when set.
		Template types.FilesystemPath `json:"template" mapstructure:"template"`
		// License is the upstream license shown by every installer.
		License types.FilesystemPath `json:"license" mapstructure:"license"`
		// OutputDirectory receives the compiled installers.
		OutputDirectory types.FilesystemPath `json:"output_directory" mapstructure:"output_directory"`
		// Repository is where releases are looked up.
		Repository Repository `json:"repository" mapstructure:"repository"`
		// UpdatesURL overrides the updates page written into installers.
		UpdatesURL UpdatesURL `json:"updates_url" mapstructure:"updates_url"`
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath types.FilesystemPath
		// ConfigDirPath overrides the config directory lookup when set.
		ConfigDirPath types.FilesystemPath
	}

	// InvalidLoadOptionsError is returned when LoadOptions carries a
	// whitespace-only path.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Compiler:        "ISCC.exe",
		License:         "thirdparty/terminal/LICENSE",
		OutputDirectory: "dist",
		Repository: Repository{
			Owner: "microsoft",
			Name:  "terminal",
		},
	}
}

// IsValid returns whether both repository parts are valid GitHub names.
func (r Repository) IsValid() (bool, []error) {
	var errs []error
	if !repositoryPartPattern.MatchString(r.Owner) {
		errs = append(errs, &InvalidRepositoryError{Field: "owner", Value: r.Owner})
	}
	if !repositoryPartPattern.MatchString(r.Name) {
		errs = append(errs, &InvalidRepositoryError{Field: "name", Value: r.Name})
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// String returns the repository as owner/name.
func (r Repository) String() string { return r.Owner + "/" + r.Name }

// Error implements the error interface for InvalidRepositoryError.
func (e *InvalidRepositoryError) Error() string {
	return fmt.Sprintf("invalid repository %s %q: must match %s", e.Field, e.Value, repositoryPartPattern)
}

// Unwrap returns ErrInvalidRepository for errors.Is() compatibility.
func (e *InvalidRepositoryError) Unwrap() error { return ErrInvalidRepository }

// String returns the string representation of the UpdatesURL.
func (u UpdatesURL) String() string { return string(u) }

// IsValid returns whether the UpdatesURL is empty or an absolute http(s) URL.
func (u UpdatesURL) IsValid() (bool, []error) {
	if u == "" {
		return true, nil
	}
	parsed, err := url.Parse(string(u))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return false, []error{&InvalidUpdatesURLError{Value: u}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUpdatesURLError.
func (e *InvalidUpdatesURLError) Error() string {
	return fmt.Sprintf("invalid updates url %q: must be an absolute http(s) URL", e.Value)
}

// Unwrap returns ErrInvalidUpdatesURL for errors.Is() compatibility.
func (e *InvalidUpdatesURLError) Unwrap() error { return ErrInvalidUpdatesURL }

// IsValid returns whether the Config has valid fields.
// Template is optional; the remaining paths are required.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, p := range []types.FilesystemPath{c.Compiler, c.License, c.OutputDirectory} {
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if c.Template.IsSet() {
		if valid, fieldErrs := c.Template.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Repository.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UpdatesURL.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate reports whether every set path in the options is usable.
func (o LoadOptions) Validate() error {
	var errs []error
	for _, p := range []types.FilesystemPath{o.ConfigFilePath, o.ConfigDirPath} {
		if !p.IsSet() {
			continue
		}
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidLoadOptionsError.
func (e *InvalidLoadOptionsError) Error() string {
	return fmt.Sprintf("invalid load options: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidLoadOptions for errors.Is() compatibility.
func (e *InvalidLoadOptionsError) Unwrap() error { return ErrInvalidLoadOptions }
