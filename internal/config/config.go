// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marjacob/setup-terminal/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "setup-terminal"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variables overriding config keys,
	// e.g. SETUP_TERMINAL_REPOSITORY_OWNER.
	EnvPrefix = "SETUP_TERMINAL"

	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the configuration directory below the XDG config home.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() string {
	if configDirOverride != "" {
		return configDirOverride
	}
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Resolve returns the config file that Load would read, or "" when no file
// exists and defaults apply. An explicit ConfigFilePath must exist.
func Resolve(opts LoadOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	if opts.ConfigFilePath.IsSet() {
		path := opts.ConfigFilePath.String()
		if !fileExists(path) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'setup-terminal config dump' to print a valid configuration").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		return path, nil
	}

	dir := ConfigDir()
	if opts.ConfigDirPath.IsSet() {
		dir = opts.ConfigDirPath.String()
	}
	candidates := []string{
		filepath.Join(dir, ConfigFileName+"."+ConfigFileExt),
		ConfigFileName + "." + ConfigFileExt,
	}
	for _, path := range candidates {
		if fileExists(path) {
			return path, nil
		}
	}
	return "", nil
}

// loadWithOptions performs option-driven config loading. It returns the
// decoded configuration together with the file it came from ("" for none).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("compiler", defaults.Compiler.String())
	v.SetDefault("compiler_args", []string{})
	v.SetDefault("template", defaults.Template.String())
	v.SetDefault("license", defaults.License.String())
	v.SetDefault("output_directory", defaults.OutputDirectory.String())
	v.SetDefault("repository.owner", defaults.Repository.Owner)
	v.SetDefault("repository.name", defaults.Repository.Name)
	v.SetDefault("updates_url", defaults.UpdatesURL.String())
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := Resolve(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables as well as the config file").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, path, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	// Optional fields in #Config keep partial files valid.
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// formatCUEError prefixes every CUE error with the dotted path of the
// offending field, e.g. "config.cue: repository.owner: invalid value".
func formatCUEError(err error, path string) error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", path, err)
	}

	lines := make([]string, 0, len(list))
	for _, e := range list {
		field := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		if field != "" && strings.HasPrefix(msg, field) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, field), ":"))
		}
		if field != "" {
			msg = field + ": " + msg
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", path, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", path, strings.Join(lines, "\n  "))
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// setup-terminal configuration file\n")
	sb.WriteString("// See https://github.com/marjacob/setup-terminal for documentation.\n\n")

	fmt.Fprintf(&sb, "compiler: %q\n", cfg.Compiler)
	if len(cfg.CompilerArgs) > 0 {
		quoted := make([]string, len(cfg.CompilerArgs))
		for i, arg := range cfg.CompilerArgs {
			quoted[i] = strconv.Quote(arg)
		}
		fmt.Fprintf(&sb, "compiler_args: [%s]\n", strings.Join(quoted, ", "))
	}
	if cfg.Template.IsSet() {
		fmt.Fprintf(&sb, "template: %q\n", cfg.Template)
	}
	fmt.Fprintf(&sb, "license: %q\n", cfg.License)
	fmt.Fprintf(&sb, "output_directory: %q\n", cfg.OutputDirectory)

	sb.WriteString("\nrepository: {\n")
	fmt.Fprintf(&sb, "\towner: %q\n", cfg.Repository.Owner)
	fmt.Fprintf(&sb, "\tname: %q\n", cfg.Repository.Name)
	sb.WriteString("}\n")

	if cfg.UpdatesURL != "" {
		fmt.Fprintf(&sb, "\nupdates_url: %q\n", cfg.UpdatesURL)
	}
	fmt.Fprintf(&sb, "\nverbose: %v\n", cfg.Verbose)

	return sb.String()
}
