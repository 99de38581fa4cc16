// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/marjacob/setup-terminal/internal/config"
	"github.com/marjacob/setup-terminal/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// globalOptions are the persistent flags shared by every command.
	globalOptions struct {
		verbose    bool
		configFile string
	}

	// sourceOptions select where the bundle comes from. At most one of
	// bundle, releaseFile, tag and preview is set; none means the latest
	// release.
	sourceOptions struct {
		bundle      string
		releaseFile string
		tag         string
		preview     bool
		owner       string
		repo        string
		apiURL      string
	}

	// buildOptions bind the root command's generation flags. They are read
	// back through loadConfig, which applies only the flags the user set.
	buildOptions struct {
		template string
		license  string
		output   string
		compiler     string
		compilerArgs []string
	}
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	var (
		global globalOptions
		src    sourceOptions
		build  buildOptions
	)

	rootCmd := &cobra.Command{
		Use:   "setup-terminal",
		Short: "Build Inno Setup installers from Windows Terminal bundles",
		Long: TitleStyle.Render("setup-terminal") + SubtitleStyle.Render(" - Windows Terminal installers for every architecture") + `

setup-terminal takes a Windows Terminal application bundle, extracts each
architecture-specific package and compiles one Inno Setup installer per
package.

` + SubtitleStyle.Render("Examples:") + `
  setup-terminal                         Build the latest release
  setup-terminal --tag v1.12.10393.0     Build a specific release
  setup-terminal --bundle ./X.msixbundle Build a bundle on disk
  setup-terminal --preview               Build the newest preview release
  setup-terminal releases                List published releases
  setup-terminal inspect                 Show what would be built
  setup-terminal config show             Show current configuration`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, app, global, src)
		},
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&global.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&global.configFile, "config", "", "config file (default is <config dir>/setup-terminal/config.cue)")

	addSourceFlags(rootCmd, &src)
	rootCmd.Flags().StringVar(&build.template, "template", "", "setup script template (default is the built-in template)")
	rootCmd.Flags().StringVar(&build.license, "license", "", "license file shown by the installers")
	rootCmd.Flags().StringVarP(&build.output, "output", "o", "", "directory receiving the installers")
	rootCmd.Flags().StringVar(&build.compiler, "compiler", "", "Inno Setup compiler executable")
	rootCmd.Flags().StringArrayVar(&build.compilerArgs, "compiler-arg", nil, "argument passed to the compiler before the script (repeatable)")

	rootCmd.AddCommand(newInspectCommand(app, &global))
	rootCmd.AddCommand(newReleasesCommand(app, &global))
	rootCmd.AddCommand(newConfigCommand(app, &global))
	rootCmd.AddCommand(newTemplateCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// addSourceFlags registers the bundle acquisition flags on cmd.
func addSourceFlags(cmd *cobra.Command, src *sourceOptions) {
	cmd.Flags().StringVarP(&src.bundle, "bundle", "b", "", "build from a bundle file on disk")
	cmd.Flags().StringVar(&src.releaseFile, "release-file", "", "build from a saved GitHub release document (JSON)")
	cmd.Flags().StringVarP(&src.tag, "tag", "t", "", "build the release published under this tag")
	cmd.Flags().BoolVar(&src.preview, "preview", false, "build the newest preview release")
	addRepositoryFlags(cmd, src)
	cmd.MarkFlagsMutuallyExclusive("bundle", "release-file", "tag", "preview")
}

// addRepositoryFlags registers the flags selecting the GitHub repository.
func addRepositoryFlags(cmd *cobra.Command, src *sourceOptions) {
	cmd.Flags().StringVar(&src.owner, "owner", "", "GitHub repository owner (default microsoft)")
	cmd.Flags().StringVar(&src.repo, "repo", "", "GitHub repository name (default terminal)")
	cmd.Flags().StringVar(&src.apiURL, "api-url", "", "GitHub API base URL")
	_ = cmd.Flags().MarkHidden("api-url")
}

// loadConfig loads configuration and applies the flags the user set on
// top of it. Flags always win over the file and the environment.
func loadConfig(cmd *cobra.Command, app *App, global globalOptions) (*config.Config, error) {
	cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(global.configFile),
	})
	if err != nil {
		return nil, err
	}

	overrides := map[string]func(string){
		"owner":    func(v string) { cfg.Repository.Owner = v },
		"repo":     func(v string) { cfg.Repository.Name = v },
		"template": func(v string) { cfg.Template = types.FilesystemPath(v) },
		"license":  func(v string) { cfg.License = types.FilesystemPath(v) },
		"output":   func(v string) { cfg.OutputDirectory = types.FilesystemPath(v) },
		"compiler": func(v string) { cfg.Compiler = types.FilesystemPath(v) },
	}
	for name, set := range overrides {
		if !cmd.Flags().Changed(name) {
			continue
		}
		value, err := cmd.Flags().GetString(name)
		if err != nil {
			return nil, err
		}
		set(value)
	}
	if cmd.Flags().Changed("compiler-arg") {
		args, err := cmd.Flags().GetStringArray("compiler-arg")
		if err != nil {
			return nil, err
		}
		cfg.CompilerArgs = args
	}
	if global.verbose {
		cfg.Verbose = true
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, errs[0]
	}
	return cfg, nil
}

// newLogger returns the CLI logger writing to w.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "setup-terminal"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// Execute runs the CLI and exits with the resulting status.
// This is called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitBundleFailure))
	}
}

// handleError prints errors that were not already reported by a command.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
