package srprep

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ListImages returns the paths of the regular entries of dir whose names
// end in one of exts, in lexical order. Subdirectories are not searched.
// Empty suffixes are ignored, and when none remain DefaultExtensions is
// used.
func ListImages(dir string, exts []string) ([]string, error) {
	exts = nonEmpty(exts)
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read source directory %s", dir)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, ext := range exts {
			if strings.HasSuffix(entry.Name(), ext) {
				files = append(files, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	return files, nil
}

func nonEmpty(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// baseName strips the extension from a file name. Names whose stem would
// be empty or all dots, such as ".png", are returned whole.
func baseName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if strings.Trim(stem, ".") == "" {
		return name
	}
	return stem
}
