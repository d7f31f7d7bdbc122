package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mxplusb/epsilon/src/app"
	"github.com/mxplusb/epsilon/src/native/vkdriver"
	"github.com/mxplusb/epsilon/src/platform"
	"github.com/mxplusb/epsilon/src/render"
)

func newDevicesCmd(opts *rootOptions) *cobra.Command {
	var extensions bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the physical devices the Vulkan loader exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := platform.Init(); err != nil {
				return report(err)
			}
			defer platform.Terminate()

			inst, err := render.NewInstance(vkdriver.New(), render.InstanceConfig{
				ApplicationName: opts.cfg.AppName,
				EngineName:      "epsilon",
				APIVersion:      app.APIVersion,
			}).Get()
			if err != nil {
				return report(err)
			}
			defer inst.Release()

			if err := listDevices(cmd.OutOrStdout(), inst, extensions); err != nil {
				return report(err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&extensions, "extensions", false, "also list each device's extensions")
	return cmd
}

func listDevices(w io.Writer, inst *render.Instance, extensions bool) error {
	devices, err := inst.PhysicalDevices()
	if err != nil {
		return err
	}
	for i, pd := range devices {
		p := pd.Properties
		fmt.Fprintf(w, "%d: %s (%s, api %d.%d.%d, vendor %#04x, device %#04x)\n", i, pd.Name(), p.DeviceType,
			p.APIVersion>>22, p.APIVersion>>12&0x3ff, p.APIVersion&0xfff, p.VendorID, p.DeviceID)
		for f, qf := range pd.QueueFamilies {
			fmt.Fprintf(w, "   queue family %d: %d queues, flags %#x\n", f, qf.QueueCount, uint32(qf.QueueFlags))
		}
		if !extensions {
			continue
		}
		exts, err := pd.Extensions()
		if err != nil {
			return err
		}
		sort.Strings(exts)
		for _, ext := range exts {
			fmt.Fprintf(w, "   %s\n", ext)
		}
	}
	return nil
}
