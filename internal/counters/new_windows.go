//go:build windows

package counters

// New opens a registry backed by the native PDH subsystem.
func New() (Registry, error) {
	return newPDHRegistry()
}
