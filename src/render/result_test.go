package render

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/mxplusb/epsilon/src/native"
)

func TestResult(t *testing.T) {
	ok := Ok(7)
	require.True(t, ok.OK())
	require.Equal(t, 7, ok.Value())
	v, err := ok.Get()
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.Equal(t, 7, Must(ok))
	require.PanicsWithValue(t, "render: Err on a successful Result", func() { ok.Err() })

	boom := errors.New("boom")
	failed := Fail[int](boom)
	require.False(t, failed.OK())
	require.Equal(t, boom, failed.Err())
	v, err = failed.Get()
	require.ErrorIs(t, err, boom)
	require.Zero(t, v)
	require.PanicsWithValue(t, "render: Value on a failed Result: boom", func() { failed.Value() })
	require.Panics(t, func() { Must(failed) })

	require.Panics(t, func() { Fail[int](nil) })

	var unset Result[*Device]
	require.False(t, unset.OK())
	require.PanicsWithValue(t, "render: Value on an unset Result", func() { unset.Value() })
	require.Panics(t, func() { _, _ = unset.Get() })
}

func TestErrors(t *testing.T) {
	require.NoError(t, NewError("QueuePresent", native.Success))
	require.NoError(t, NewError("QueuePresent", native.Suboptimal))
	require.NoError(t, NewError("WaitForFences", native.Timeout))

	for idx, tc := range []struct {
		status native.Status
		kind   Kind
	}{
		{native.ErrorOutOfDate, KindStaleSurface},
		{native.ErrorSurfaceLost, KindFatal},
		{native.ErrorDeviceLost, KindFatal},
		{native.ErrorOutOfHostMemory, KindFatal},
	} {
		err := NewError("AcquireNextImage", tc.status)
		require.Error(t, err, "case %d", idx)
		wrapped := errors.Wrap(err, "frame")
		require.Equal(t, tc.kind, KindOf(wrapped), "case %d", idx)
		require.Equal(t, tc.kind == KindStaleSurface, IsStale(wrapped), "case %d", idx)
		status, ok := StatusOf(wrapped)
		require.True(t, ok)
		require.Equal(t, tc.status, status)
	}

	err := constructionError("CreateFence", native.ErrorOutOfDeviceMemory)
	require.Equal(t, KindConstruction, KindOf(err))
	require.Equal(t, "construction failure: CreateFence: OUT OF DEVICE MEMORY (-2)", err.Error())

	err = configError("NewImage", "zero extent %dx%d", 0, 4)
	require.Equal(t, "configuration error: NewImage: zero extent 0x4", err.Error())
	_, ok := StatusOf(err)
	require.False(t, ok)

	err = fatalError("WaitForFences", native.Timeout)
	require.Equal(t, KindFatal, KindOf(err))
	require.False(t, IsError(native.Timeout))

	require.Equal(t, Kind(0), KindOf(errors.New("plain")))
	require.Equal(t, "kind(42)", Kind(42).String())
}
