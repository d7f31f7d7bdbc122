package vkdriver

import (
	"testing"

	"github.com/mxplusb/epsilon/src/native"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct{ id int }

func TestTable(t *testing.T) {
	tab := newTable()
	a, b := &fakeHandle{1}, &fakeHandle{2}

	ha := tab.put(a)
	hb := tab.put(b)
	require.NotEqual(t, native.NullHandle, ha)
	require.NotEqual(t, ha, hb)
	require.Equal(t, ha, tab.put(a), "same value maps to the same handle")
	require.Equal(t, native.NullHandle, tab.put(nil))

	require.Same(t, a, lookup[*fakeHandle](tab, ha))
	require.Same(t, b, lookup[*fakeHandle](tab, hb))
	require.Nil(t, lookup[*fakeHandle](tab, native.NullHandle))
	require.Equal(t, 0, lookup[int](tab, ha), "wrong type yields the zero value")

	tab.drop(ha)
	require.Nil(t, lookup[*fakeHandle](tab, ha))
	require.Equal(t, 1, tab.len())
	require.NotEqual(t, ha, tab.put(a), "handles are not reused after drop")
	tab.drop(native.Handle(0xdead))
	require.Equal(t, 2, tab.len())
}

func TestTableDropsOwnedHandles(t *testing.T) {
	for idx, tc := range []struct {
		name        string
		enumerate   int
		children    int
		wantLeft    int
		wantRecords int
	}{
		{name: "no children", enumerate: 0, children: 0, wantLeft: 1},
		{name: "enumerated once", enumerate: 1, children: 2, wantLeft: 1, wantRecords: 2},
		{name: "enumerated repeatedly", enumerate: 3, children: 2, wantLeft: 1, wantRecords: 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tab := newTable()
			other := tab.put(&fakeHandle{-1})
			owner := tab.put(&fakeHandle{0})
			gpus := make([]*fakeHandle, tc.children)
			for i := range gpus {
				gpus[i] = &fakeHandle{i + 1}
			}
			var handles []native.Handle
			for n := 0; n < tc.enumerate; n++ {
				handles = handles[:0]
				for _, g := range gpus {
					h := tab.put(g)
					tab.own(owner, h)
					handles = append(handles, h)
				}
			}
			require.Len(t, tab.owned[owner], tc.wantRecords, "case %d", idx)
			require.Equal(t, 2+tc.children, tab.len(), "case %d", idx)

			tab.dropOwned(owner)
			require.Equal(t, tc.wantLeft, tab.len(), "case %d", idx)
			require.Nil(t, lookup[*fakeHandle](tab, owner))
			for _, h := range handles {
				require.Nil(t, lookup[*fakeHandle](tab, h))
			}
			require.NotNil(t, lookup[*fakeHandle](tab, other))
			require.Empty(t, tab.owned)
		})
	}
}

func TestCStrings(t *testing.T) {
	tests := []struct {
		name string
		in   []string
	}{
		{"empty", nil},
		{"one", []string{"VK_KHR_surface"}},
		{"many", []string{"VK_KHR_surface", "VK_EXT_debug_report", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ptrs []*byte
			for _, s := range tt.in {
				b := append([]byte(s), 0)
				ptrs = append(ptrs, &b[0])
			}
			var pp **byte
			if len(ptrs) > 0 {
				pp = &ptrs[0]
			}
			got := cstrings(pp, uint32(len(ptrs)))
			require.Len(t, got, len(tt.in))
			for i, s := range tt.in {
				require.Equal(t, s+"\x00", got[i])
			}
		})
	}
	require.Equal(t, "\x00", cstring(nil))
}
