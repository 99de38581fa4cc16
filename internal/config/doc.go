// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is read from <XDG config home>/setup-terminal/config.cue, falling back to
// ./config.cue, unless an explicit file is given. The file is validated against the
// embedded #Config schema (config_schema.cue) before it is merged over the built-in
// defaults. Environment variables prefixed with SETUP_TERMINAL_ override both.
package config
