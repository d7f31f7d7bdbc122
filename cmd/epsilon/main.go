// Command epsilon opens a window and renders frames through the Vulkan
// presentation chain described by a YAML config.
package main

import (
	"os"
	"runtime"
)

func init() {
	// glfw and the swapchain must be driven from the main thread
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd(&rootOptions{}).Execute(); err != nil {
		os.Exit(1)
	}
}
