//go:build !windows

package counters

// New opens a registry backed by portable host sensors.
func New() (Registry, error) {
	return newPortableRegistry(), nil
}
