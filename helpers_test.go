package srprep

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/srprep/imageutil"
)

// writePNG saves img as dir/name and returns the path.
func writePNG(t *testing.T, dir, name string, img *imageutil.RGBAImage) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imageutil.SavePNG(img, path))
	return path
}

// writeFile writes raw bytes as dir/name and returns the path.
func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// dirNames returns the sorted names of the entries of dir.
func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func loadPNG(t *testing.T, path string) *imageutil.RGBAImage {
	t.Helper()
	img, err := imageutil.LoadImage(path)
	require.NoError(t, err)
	return img
}

// nullLogger returns a logger that discards output and records entries.
func nullLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}
