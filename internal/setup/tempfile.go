// SPDX-License-Identifier: MPL-2.0

package setup

import (
	"errors"
	"fmt"
	"os"
)

// WithTempFile writes data to a new file in dir (os.TempDir when empty) named
// after pattern, closes it, and calls fn with its path. The file is removed
// when fn returns, whatever the outcome. The file is closed before fn runs so
// that other processes can open it on Windows.
func WithTempFile(dir, pattern string, data []byte, fn func(path string) error) (err error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("removing temporary file: %w", rmErr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}

	return fn(path)
}

// WithTempDir creates a new directory in dir (os.TempDir when empty), calls
// fn with its path, and removes it with all its contents afterwards.
func WithTempDir(dir, pattern string, fn func(path string) error) (err error) {
	tmp, err := os.MkdirTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("creating temporary directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmp); rmErr != nil && err == nil {
			err = fmt.Errorf("removing temporary directory: %w", rmErr)
		}
	}()

	return fn(tmp)
}
