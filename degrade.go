package srprep

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/wbrown/srprep/imageutil"
)

// DefaultBackend is the pure Go degradation backend.
const DefaultBackend = "go"

// A Degrader produces the low resolution counterpart of an image: blur,
// downscale by factor, upscale back. The result has the same size as img.
type Degrader interface {
	Degrade(img *imageutil.RGBAImage, factor int) (*imageutil.RGBAImage, error)
}

// DegraderFunc adapts a function to the Degrader interface.
type DegraderFunc func(img *imageutil.RGBAImage, factor int) (*imageutil.RGBAImage, error)

// Degrade calls f(img, factor).
func (f DegraderFunc) Degrade(img *imageutil.RGBAImage, factor int) (*imageutil.RGBAImage, error) {
	return f(img, factor)
}

var (
	backendsMu sync.RWMutex
	backends   = map[string]Degrader{
		DefaultBackend: DegraderFunc(imageutil.Degrade),
	}
)

// RegisterBackend makes a Degrader available under name, replacing any
// backend already registered with it.
func RegisterBackend(name string, d Degrader) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = d
}

// Backend returns the Degrader registered under name. An empty name
// selects DefaultBackend.
func Backend(name string) (Degrader, error) {
	if name == "" {
		name = DefaultBackend
	}

	backendsMu.RLock()
	defer backendsMu.RUnlock()
	d, ok := backends[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "%q (available: %v)", name, backendNames())
	}
	return d, nil
}

// Backends returns the names of all registered backends, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	return backendNames()
}

func backendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
