package native

import (
	"math"
	"unsafe"
)

// Slice views count elements starting at p. It returns nil for a nil
// pointer or a zero count.
func Slice[T any](p *T, count uint32) []T {
	if p == nil || count == 0 {
		return nil
	}
	return unsafe.Slice(p, count)
}

// GoString copies a NUL-terminated string.
func GoString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// GoStrings copies count NUL-terminated strings from an array of pointers.
func GoStrings(pp **byte, count uint32) []string {
	ptrs := Slice(pp, count)
	if ptrs == nil {
		return nil
	}
	out := make([]string, len(ptrs))
	for i, p := range ptrs {
		out[i] = GoString(p)
	}
	return out
}

// ClearColor packs an RGBA float color into a ClearValue.
func ClearColor(r, g, b, a float32) ClearValue {
	return ClearValue{
		math.Float32bits(r),
		math.Float32bits(g),
		math.Float32bits(b),
		math.Float32bits(a),
	}
}

// ClearDepthStencil packs a depth/stencil clear into a ClearValue.
func ClearDepthStencil(depth float32, stencil uint32) ClearValue {
	return ClearValue{math.Float32bits(depth), stencil}
}

// Color unpacks the value as an RGBA float color.
func (c ClearValue) Color() [4]float32 {
	return [4]float32{
		math.Float32frombits(c[0]),
		math.Float32frombits(c[1]),
		math.Float32frombits(c[2]),
		math.Float32frombits(c[3]),
	}
}
