// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"

	"github.com/marjacob/setup-terminal/pkg/types"
)

func TestLoadOptions_Validate_AllEmpty(t *testing.T) {
	t.Parallel()
	if err := (LoadOptions{}).Validate(); err != nil {
		t.Errorf("empty LoadOptions should be valid, got error: %v", err)
	}
}

func TestLoadOptions_Validate_AllValid(t *testing.T) {
	t.Parallel()
	opts := LoadOptions{
		ConfigFilePath: "/tmp/config.cue",
		ConfigDirPath:  "/tmp/config",
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("LoadOptions with valid paths should be valid, got error: %v", err)
	}
}

func TestLoadOptions_Validate_WhitespacePaths(t *testing.T) {
	t.Parallel()
	opts := LoadOptions{
		ConfigFilePath: types.FilesystemPath("   "),
		ConfigDirPath:  types.FilesystemPath("\t"),
	}
	err := opts.Validate()
	if !errors.Is(err, ErrInvalidLoadOptions) {
		t.Fatalf("error should wrap ErrInvalidLoadOptions, got: %v", err)
	}

	var loadErr *InvalidLoadOptionsError
	if !errors.As(err, &loadErr) {
		t.Fatalf("error should be *InvalidLoadOptionsError, got: %T", err)
	}
	if len(loadErr.FieldErrors) != 2 {
		t.Errorf("expected 2 field errors, got %d", len(loadErr.FieldErrors))
	}
	if !errors.Is(loadErr.FieldErrors[0], types.ErrInvalidFilesystemPath) {
		t.Errorf("field error should wrap ErrInvalidFilesystemPath, got %v", loadErr.FieldErrors[0])
	}
}

func TestResolve_RejectsInvalidOptions(t *testing.T) {
	t.Parallel()
	_, err := Resolve(LoadOptions{ConfigFilePath: " "})
	if !errors.Is(err, ErrInvalidLoadOptions) {
		t.Errorf("Resolve() = %v, want ErrInvalidLoadOptions", err)
	}
}
