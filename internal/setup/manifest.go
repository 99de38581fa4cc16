// SPDX-License-Identifier: MPL-2.0

package setup

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// FileEntry maps one extracted file to its install location.
type FileEntry struct {
	// Source is the absolute path of the extracted file.
	Source string
	// Destination is the file's directory relative to the extraction root,
	// or "" for files at the root.
	Destination string
}

// Manifest walks root recursively and returns one entry per regular file.
// The order is the walk order and carries no meaning.
func Manifest(root string) ([]FileEntry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	var files []FileEntry
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		dest := filepath.Dir(rel)
		if dest == "." {
			dest = ""
		}
		files = append(files, FileEntry{Source: path, Destination: dest})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building file manifest: %w", err)
	}
	return files, nil
}
