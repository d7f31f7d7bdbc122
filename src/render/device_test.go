package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/native/nativetest"
)

func TestDeviceConfigValidation(t *testing.T) {
	for idx, tc := range []struct {
		name   string
		queues []QueueRequest
		err    string
	}{
		{name: "no queues", err: "no queues requested"},
		{name: "zero count", queues: []QueueRequest{{Family: 0}}, err: "queue count 0"},
		{name: "priority count", queues: []QueueRequest{{Family: 0, Count: 2, Priorities: []float32{1}}}, err: "1 priorities for 2 queues"},
		{name: "priority range", queues: []QueueRequest{{Family: 0, Count: 1, Priorities: []float32{1.5}}}, err: "outside [0, 1]"},
		{name: "duplicate family", queues: []QueueRequest{{Family: 0, Count: 1}, {Family: 0, Count: 1}}, err: "requested twice"},
		{name: "unknown family", queues: []QueueRequest{{Family: 5, Count: 1}}, err: "does not exist"},
		{name: "too many queues", queues: []QueueRequest{{Family: 1, Count: 3}}, err: "3 queues requested, 2 available"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gpu := nativetest.New()
			inst := Must(NewInstance(gpu, InstanceConfig{}))
			defer inst.Release()
			devices, err := inst.PhysicalDevices()
			require.NoError(t, err)

			_, err = NewDevice(devices[0], DeviceConfig{Queues: tc.queues}).Get()
			require.Error(t, err, "case %d", idx)
			require.Equal(t, KindConfiguration, KindOf(err))
			require.Contains(t, err.Error(), tc.err)
			require.Zero(t, gpu.Count("CreateDevice"))
		})
	}
}

func TestDeviceQueues(t *testing.T) {
	gpu := nativetest.New()
	inst := Must(NewInstance(gpu, InstanceConfig{}))
	devices, err := inst.PhysicalDevices()
	require.NoError(t, err)
	dev := Must(NewDevice(devices[0], DeviceConfig{Queues: []QueueRequest{
		{Family: 0, Count: 2, Priorities: []float32{1, 0.5}},
		{Family: 1, Count: 1},
	}}))

	require.Equal(t, []float32{1}, dev.Config().Queues[1].Priorities, "missing priorities default to 1")

	q, err := dev.Queue(0, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), q.Family())
	require.Equal(t, uint32(1), q.Index())
	again, err := dev.Queue(0, 1)
	require.NoError(t, err)
	require.Same(t, q, again)
	require.Equal(t, 1, gpu.Count("GetDeviceQueue"))

	_, err = dev.Queue(1, 1)
	require.Equal(t, KindLookup, KindOf(err))
	_, err = dev.Queue(2, 0)
	require.Equal(t, KindLookup, KindOf(err))

	require.NoError(t, q.WaitIdle())
	require.NoError(t, dev.WaitIdle())
	dev.Release()
	inst.Release()
	require.Empty(t, gpu.Leaks())
	require.Empty(t, gpu.Violations())
}

func TestDeviceMissingExtension(t *testing.T) {
	gpu := nativetest.New()
	inst := Must(NewInstance(gpu, InstanceConfig{}))
	devices, err := inst.PhysicalDevices()
	require.NoError(t, err)

	_, err = NewDevice(devices[0], DeviceConfig{
		Queues:     []QueueRequest{{Family: 0, Count: 1}},
		Extensions: []string{"VK_KHR_ray_tracing_pipeline"},
	}).Get()
	require.Equal(t, KindConstruction, KindOf(err))
	status, _ := StatusOf(err)
	require.Equal(t, native.ErrorExtensionNotPresent, status)

	inst.Release()
	require.Empty(t, gpu.Leaks())
}
