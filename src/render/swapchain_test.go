package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mxplusb/epsilon/src/native"
)

var (
	srgb  = native.SurfaceFormat{Format: native.FormatB8G8R8A8Srgb, ColorSpace: native.ColorSpaceSrgbNonlinear}
	unorm = native.SurfaceFormat{Format: native.FormatB8G8R8A8Unorm, ColorSpace: native.ColorSpaceSrgbNonlinear}
)

func testCaps() native.SurfaceCapabilities {
	return native.SurfaceCapabilities{
		MinImageCount:       2,
		MaxImageCount:       3,
		CurrentExtent:       native.Extent2D{Width: 800, Height: 600},
		MinImageExtent:      native.Extent2D{Width: 1, Height: 1},
		MaxImageExtent:      native.Extent2D{Width: 4096, Height: 4096},
		SupportedUsageFlags: native.ImageUsageColorAttachmentBit | native.ImageUsageTransferDstBit,
	}
}

func TestNegotiate(t *testing.T) {
	free := native.Extent2D{Width: ^uint32(0), Height: ^uint32(0)}
	for idx, tc := range []struct {
		name    string
		cfg     SwapchainConfig
		caps    func(c *native.SurfaceCapabilities)
		formats []native.SurfaceFormat
		modes   []native.PresentMode
		check   func(t *testing.T, got SwapchainConfig)
		err     Kind
	}{
		{
			name:    "requested values are honoured",
			cfg:     SwapchainConfig{Format: unorm, PresentMode: native.PresentModeMailbox, MinImages: 3},
			formats: []native.SurfaceFormat{srgb, unorm},
			modes:   []native.PresentMode{native.PresentModeFifo, native.PresentModeMailbox},
			check: func(t *testing.T, got SwapchainConfig) {
				require.Equal(t, unorm, got.Format)
				require.Equal(t, native.PresentModeMailbox, got.PresentMode)
				require.Equal(t, uint32(3), got.MinImages)
				require.Equal(t, native.Extent2D{Width: 800, Height: 600}, got.Extent)
				require.Equal(t, native.ImageUsageColorAttachmentBit, got.Usage)
			},
		},
		{
			name:    "fallbacks",
			cfg:     SwapchainConfig{Format: unorm, PresentMode: native.PresentModeImmediate},
			formats: []native.SurfaceFormat{srgb},
			modes:   []native.PresentMode{native.PresentModeMailbox},
			check: func(t *testing.T, got SwapchainConfig) {
				require.Equal(t, srgb, got.Format, "first supported format")
				require.Equal(t, native.PresentModeFifo, got.PresentMode, "fifo is always available")
				require.Equal(t, uint32(3), got.MinImages, "one more than the minimum")
			},
		},
		{
			name:    "undefined format leaves the choice to the caller",
			cfg:     SwapchainConfig{Format: srgb},
			formats: []native.SurfaceFormat{{Format: native.FormatUndefined}},
			check: func(t *testing.T, got SwapchainConfig) {
				require.Equal(t, srgb, got.Format)
			},
		},
		{
			name:    "undefined format without a request",
			formats: []native.SurfaceFormat{{Format: native.FormatUndefined}},
			check: func(t *testing.T, got SwapchainConfig) {
				require.Equal(t, unorm, got.Format)
			},
		},
		{
			name:    "image count is clamped",
			cfg:     SwapchainConfig{MinImages: 9},
			formats: []native.SurfaceFormat{srgb},
			check: func(t *testing.T, got SwapchainConfig) {
				require.Equal(t, uint32(3), got.MinImages)
			},
		},
		{
			name:    "unbounded image count",
			cfg:     SwapchainConfig{MinImages: 9},
			caps:    func(c *native.SurfaceCapabilities) { c.MaxImageCount = 0 },
			formats: []native.SurfaceFormat{srgb},
			check: func(t *testing.T, got SwapchainConfig) {
				require.Equal(t, uint32(9), got.MinImages)
			},
		},
		{
			name:    "extent chosen by the swapchain is clamped",
			cfg:     SwapchainConfig{Extent: native.Extent2D{Width: 9000, Height: 0}},
			caps:    func(c *native.SurfaceCapabilities) { c.CurrentExtent = free },
			formats: []native.SurfaceFormat{srgb},
			check: func(t *testing.T, got SwapchainConfig) {
				require.Equal(t, native.Extent2D{Width: 4096, Height: 1}, got.Extent)
			},
		},
		{
			name:    "queue families are deduplicated",
			cfg:     SwapchainConfig{QueueFamilies: []uint32{1, 0, 1}},
			formats: []native.SurfaceFormat{srgb},
			check: func(t *testing.T, got SwapchainConfig) {
				require.Equal(t, []uint32{1, 0}, got.QueueFamilies)
			},
		},
		{
			name: "no formats",
			err:  KindLookup,
		},
		{
			name:    "zero extent",
			caps:    func(c *native.SurfaceCapabilities) { c.CurrentExtent = native.Extent2D{} },
			formats: []native.SurfaceFormat{srgb},
			err:     KindConfiguration,
		},
		{
			name:    "unsupported usage",
			cfg:     SwapchainConfig{Usage: native.ImageUsageSampledBit},
			formats: []native.SurfaceFormat{srgb},
			err:     KindConfiguration,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			caps := testCaps()
			if tc.caps != nil {
				tc.caps(&caps)
			}
			got, err := negotiate(tc.cfg, caps, tc.formats, tc.modes)
			if tc.err != 0 {
				require.Error(t, err, "case %d", idx)
				require.Equal(t, tc.err, KindOf(err))
				return
			}
			require.NoError(t, err, "case %d", idx)
			tc.check(t, got)
		})
	}
}

func TestCompositeAlpha(t *testing.T) {
	require.Equal(t, native.CompositeAlphaOpaqueBit, compositeAlpha(native.CompositeAlphaOpaqueBit|native.CompositeAlphaInheritBit))
	require.Equal(t, native.CompositeAlphaInheritBit, compositeAlpha(native.CompositeAlphaInheritBit))
	require.Equal(t, native.CompositeAlphaOpaqueBit, compositeAlpha(0))
}

func TestSwapchainImagesRetainTheSwapchain(t *testing.T) {
	f := newFixture(t)
	sc := Must(NewSwapchain(f.dev, SwapchainConfig{
		Surface:       f.surface,
		Format:        srgb,
		QueueFamilies: f.sel.Families(),
	}))
	images := sc.Images()
	require.Len(t, images, sc.ImageCount())
	require.Equal(t, "SwapchainImage", images[0].Kind())
	require.Equal(t, srgb.Format, images[0].Config().Format)

	sc.Release()
	require.True(t, sc.Alive(), "images keep the swapchain alive")
	releaseAll(images)
	require.False(t, sc.Alive())
	require.Zero(t, f.gpu.Live("Swapchain"))
	f.close(t)
}
