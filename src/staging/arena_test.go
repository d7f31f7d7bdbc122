package staging

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type pair struct {
	A uint32
	B *uint32
}

func TestArenaAllocations(t *testing.T) {
	a := New()
	p := Alloc[pair](a)
	p.A = 7
	s := Slice[uint32](a, 4)
	s[2] = 9
	p.B = &s[2]
	require.Equal(t, 2, a.Allocs())
	require.Equal(t, 8+8+16, a.Size())
	require.Nil(t, Slice[uint32](a, 0))
	require.Nil(t, Copy[uint32](a, nil))
	require.Equal(t, uint32(9), *p.B)
	a.Release()
	require.True(t, a.Released())
}

func TestArenaPoisonsOnRelease(t *testing.T) {
	a := New()
	p := Alloc[pair](a)
	p.A = 42
	words := Copy(a, []uint32{1, 2, 3})
	raw := a.Bytes(4)
	copy(raw, []byte{1, 2, 3, 4})
	str := a.CString("main")

	a.Release()

	require.Equal(t, pair{}, *p)
	require.Equal(t, uint32(0), *words)
	for _, b := range raw {
		require.Equal(t, byte(PoisonByte), b)
	}
	stale := unsafe.Slice(str, 5)
	require.Equal(t, []byte{PoisonByte, PoisonByte, PoisonByte, PoisonByte, 0}, stale)
}

func TestArenaCStrings(t *testing.T) {
	a := New()
	defer a.Release()
	require.Nil(t, a.CStrings(nil))
	pp := a.CStrings([]string{"VK_KHR_swapchain", "x"})
	require.NotNil(t, pp)
	require.Equal(t, byte('V'), **pp)
	require.Equal(t, 3, a.Allocs())
}

func TestArenaMisuse(t *testing.T) {
	a := New()
	a.Release()
	require.Panics(t, func() { a.Release() })
	require.Panics(t, func() { Alloc[uint32](a) })
	require.Panics(t, func() { a.CString("late") })
}

func TestCallReleasesAfterReturn(t *testing.T) {
	var kept *Arena
	var during []uint32
	got := Call(func(a *Arena) int {
		kept = a
		s := Slice[uint32](a, 2)
		s[0], s[1] = 5, 6
		during = s
		require.False(t, a.Released())
		return int(s[0] + s[1])
	})
	require.Equal(t, 11, got)
	require.True(t, kept.Released())
	require.Equal(t, []uint32{0, 0}, during)
}
