//go:build windows

package counters

import (
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modpdh = windows.NewLazySystemDLL("pdh.dll")

	procPdhOpenQueryW                = modpdh.NewProc("PdhOpenQueryW")
	procPdhAddEnglishCounterW        = modpdh.NewProc("PdhAddEnglishCounterW")
	procPdhCollectQueryData          = modpdh.NewProc("PdhCollectQueryData")
	procPdhGetFormattedCounterValue  = modpdh.NewProc("PdhGetFormattedCounterValue")
	procPdhGetFormattedCounterArrayW = modpdh.NewProc("PdhGetFormattedCounterArrayW")
	procPdhCloseQuery                = modpdh.NewProc("PdhCloseQuery")
)

const (
	pdhFmtDouble  = 0x00000200
	pdhMoreData   = 0x800007D2
	pdhCStatusOK  = 0
	statusSuccess = 0
)

// PDH_FMT_COUNTERVALUE with the double member of the union. The float64
// is 8-aligned, matching the native layout.
type pdhFmtCounterValueDouble struct {
	CStatus uint32
	Value   float64
}

// PDH_FMT_COUNTERVALUE_ITEM_W.
type pdhFmtCounterValueItemDouble struct {
	Name     *uint16
	FmtValue pdhFmtCounterValueDouble
}

// pdhRegistry is a Registry over one PDH query. All counters added to
// the query are collected together by PdhCollectQueryData; formatted
// reads return data from the latest collection.
type pdhRegistry struct {
	query  windows.Handle
	closed bool
}

func newPDHRegistry() (Registry, error) {
	var q windows.Handle
	status, _, _ := procPdhOpenQueryW.Call(0, 0, uintptr(unsafe.Pointer(&q)))
	if status != statusSuccess {
		return nil, fmt.Errorf("PdhOpenQuery failed: %#x", status)
	}
	return &pdhRegistry{query: q}, nil
}

func (r *pdhRegistry) Open(path string) (*Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCounterUnavailable, path, err)
	}
	var c windows.Handle
	status, _, _ := procPdhAddEnglishCounterW.Call(
		uintptr(r.query),
		uintptr(unsafe.Pointer(p)),
		0,
		uintptr(unsafe.Pointer(&c)),
	)
	if status != statusSuccess {
		return nil, fmt.Errorf("%w: %s: status %#x", ErrCounterUnavailable, path, status)
	}
	return &Handle{path: path, impl: c}, nil
}

func (r *pdhRegistry) Refresh() error {
	status, _, _ := procPdhCollectQueryData.Call(uintptr(r.query))
	if status != statusSuccess {
		return &ReadError{Path: "*", Err: fmt.Errorf("PdhCollectQueryData failed: %#x", status)}
	}
	return nil
}

func (r *pdhRegistry) Read(h *Handle) (float64, error) {
	c := h.impl.(windows.Handle)
	var value pdhFmtCounterValueDouble
	status, _, _ := procPdhGetFormattedCounterValue.Call(
		uintptr(c),
		pdhFmtDouble,
		0,
		uintptr(unsafe.Pointer(&value)),
	)
	if status != statusSuccess || value.CStatus != pdhCStatusOK {
		return 0, &ReadError{
			Path: h.path,
			Err:  fmt.Errorf("format failed: status %#x cstatus %#x", status, value.CStatus),
		}
	}
	return value.Value, nil
}

func (r *pdhRegistry) ReadInstances(h *Handle) ([]Instance, error) {
	c := h.impl.(windows.Handle)

	var bufSize, itemCount uint32
	status, _, _ := procPdhGetFormattedCounterArrayW.Call(
		uintptr(c),
		pdhFmtDouble,
		uintptr(unsafe.Pointer(&bufSize)),
		uintptr(unsafe.Pointer(&itemCount)),
		0,
	)
	if status == statusSuccess && itemCount == 0 {
		return nil, nil
	}
	if status != pdhMoreData {
		return nil, &ReadError{Path: h.path, Err: fmt.Errorf("array size probe failed: %#x", status)}
	}

	buf := make([]byte, bufSize)
	status, _, _ = procPdhGetFormattedCounterArrayW.Call(
		uintptr(c),
		pdhFmtDouble,
		uintptr(unsafe.Pointer(&bufSize)),
		uintptr(unsafe.Pointer(&itemCount)),
		uintptr(unsafe.Pointer(&buf[0])),
	)
	if status != statusSuccess {
		return nil, &ReadError{Path: h.path, Err: fmt.Errorf("array read failed: %#x", status)}
	}
	if itemCount == 0 {
		return nil, nil
	}

	items := unsafe.Slice((*pdhFmtCounterValueItemDouble)(unsafe.Pointer(&buf[0])), itemCount)
	out := make([]Instance, 0, itemCount)
	for i := range items {
		// Instances that failed this collection are skipped, not zeroed.
		if items[i].FmtValue.CStatus != pdhCStatusOK {
			continue
		}
		out = append(out, Instance{
			Name:  strings.ToLower(windows.UTF16PtrToString(items[i].Name)),
			Value: items[i].FmtValue.Value,
		})
	}
	return out, nil
}

func (r *pdhRegistry) Close() {
	if r.closed {
		return
	}
	r.closed = true
	procPdhCloseQuery.Call(uintptr(r.query)) //nolint:errcheck
}
