//go:build !windows

package metrics

// probeAMD always fails off Windows; ADL is a Windows driver library.
func probeAMD() (VendorStrategy, error) {
	return nil, ErrNoVendorGPU
}
