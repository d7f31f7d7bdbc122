package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/native/nativetest"
)

func TestPresentationChainBuild(t *testing.T) {
	for idx, tc := range []struct {
		name        string
		depth       native.Format
		attachments int
		images      int
	}{
		{name: "color only", depth: native.FormatUndefined, attachments: 1},
		{name: "color and depth", depth: native.FormatD32Sfloat, attachments: 2, images: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			cfg := f.chainConfig()
			cfg.DepthFormat = tc.depth
			chain := Must(NewPresentationChain(f.dev, cfg))

			require.Equal(t, 3, chain.ImageCount(), "case %d", idx)
			require.Equal(t, native.Extent2D{Width: 320, Height: 240}, chain.Extent())
			require.Equal(t, native.FormatB8G8R8A8Srgb, chain.Format().Format)
			require.Equal(t, tc.attachments, chain.RenderPass().Attachments())
			require.Equal(t, tc.images, f.gpu.Live("Image"))
			require.Equal(t, 3, f.gpu.Live("Framebuffer"))
			require.Equal(t, 3+tc.images, f.gpu.Live("ImageView"))
			for i := 0; i < chain.ImageCount(); i++ {
				require.Equal(t, tc.attachments, len(chain.Framebuffer(i).Config().Attachments))
				require.Same(t, chain.View(i), chain.Framebuffer(i).Config().Attachments[0])
			}
			require.Zero(t, chain.Generation())

			chain.Release()
			f.close(t)
		})
	}
}

func TestPresentationChainRecreate(t *testing.T) {
	f := newFixture(t)
	chain := Must(NewPresentationChain(f.dev, f.chainConfig()))
	rp := chain.RenderPass()
	oldSwapchain := chain.Swapchain().Handle()

	var seen []native.Extent2D
	chain.OnRecreate(func(c *PresentationChain) error {
		seen = append(seen, c.Extent())
		return nil
	})

	f.win.Resize(800, 600)
	require.NoError(t, chain.Recreate(context.Background()))
	require.Equal(t, 1, chain.Generation())
	require.Equal(t, native.Extent2D{Width: 800, Height: 600}, chain.Extent())
	require.Equal(t, []native.Extent2D{{Width: 800, Height: 600}}, seen)
	require.Same(t, rp, chain.RenderPass(), "the render pass only depends on the format")
	require.False(t, f.gpu.Alive(native.Handle(oldSwapchain)))
	require.Equal(t, 1, f.gpu.Live("Swapchain"))
	require.Equal(t, 3, f.gpu.Live("Framebuffer"))

	chain.Release()
	f.close(t)
}

func TestPresentationChainFormatChange(t *testing.T) {
	f := newFixture(t)
	chain := Must(NewPresentationChain(f.dev, f.chainConfig()))
	rp := chain.RenderPass()

	f.gpu.SurfaceFormats = []native.SurfaceFormat{{Format: native.FormatB8G8R8A8Unorm, ColorSpace: native.ColorSpaceSrgbNonlinear}}
	require.NoError(t, chain.Recreate(context.Background()))
	require.Equal(t, native.FormatB8G8R8A8Unorm, chain.Format().Format)
	require.NotSame(t, rp, chain.RenderPass())
	require.False(t, rp.Alive())
	require.Equal(t, 1, f.gpu.Live("RenderPass"))

	chain.Release()
	f.close(t)
}

func TestPresentationChainWaitsForDrawable(t *testing.T) {
	f := newFixture(t)
	chain := Must(NewPresentationChain(f.dev, f.chainConfig()))

	f.win.Resize(0, 0)
	f.win.OnWaitEvents = func(w *nativetest.Window) {
		if w.Waits() == 3 {
			w.Resize(200, 100)
		}
	}
	require.NoError(t, chain.Recreate(context.Background()))
	require.Equal(t, 3, f.win.Waits())
	require.Equal(t, native.Extent2D{Width: 200, Height: 100}, chain.Extent())

	// a cancelled context ends the wait instead
	f.win.OnWaitEvents = nil
	f.win.Resize(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, chain.Recreate(ctx), context.Canceled)
	require.Equal(t, 1, chain.Generation())

	// so does a window asking to close, leaving the old chain in place
	f.win.RequestClose()
	require.ErrorIs(t, chain.Recreate(context.Background()), ErrWindowClosed)
	require.Equal(t, 1, chain.Generation())
	require.True(t, chain.Swapchain().Alive())

	chain.Release()
	f.close(t)
}

func TestPresentationChainFailures(t *testing.T) {
	for idx, tc := range []struct {
		call string
	}{
		{"CreateSwapchain"},
		{"GetSwapchainImages"},
		{"CreateRenderPass"},
		{"CreateImageView"},
		{"CreateImage"},
		{"AllocateMemory"},
		{"BindImageMemory"},
		{"CreateFramebuffer"},
	} {
		t.Run(tc.call, func(t *testing.T) {
			f := newFixture(t)
			f.gpu.FailOn(tc.call, native.ErrorOutOfDeviceMemory)
			cfg := f.chainConfig()
			cfg.DepthFormat = native.FormatD32Sfloat
			_, err := NewPresentationChain(f.dev, cfg).Get()
			require.Error(t, err, "case %d", idx)
			require.Equal(t, KindConstruction, KindOf(err))
			require.Equal(t, map[string]int{"Instance": 1, "Surface": 1, "Device": 1}, f.inst.LiveObjects())
			f.close(t)
		})
	}
}

func TestPresentationChainMisuse(t *testing.T) {
	f := newFixture(t)

	_, err := NewPresentationChain(f.dev, ChainConfig{Window: f.win}).Get()
	require.Equal(t, KindConfiguration, KindOf(err))

	f.win.Resize(0, 0)
	_, err = NewPresentationChain(f.dev, f.chainConfig()).Get()
	require.Equal(t, KindConfiguration, KindOf(err), "zero extent")
	f.win.Resize(320, 240)

	chain := Must(NewPresentationChain(f.dev, f.chainConfig()))
	chain.Release()
	require.Equal(t, KindConfiguration, KindOf(chain.Recreate(context.Background())))
	require.Panics(t, func() { chain.Release() })
	f.close(t)
}
