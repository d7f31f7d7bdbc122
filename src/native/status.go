package native

import "fmt"

// Status is the return code of a native call. Values match the Vulkan
// VkResult enumeration so drivers can pass them through unchanged.
type Status int32

const (
	Success                   Status = 0
	NotReady                  Status = 1
	Timeout                   Status = 2
	EventSet                  Status = 3
	EventReset                Status = 4
	Incomplete                Status = 5
	ErrorOutOfHostMemory      Status = -1
	ErrorOutOfDeviceMemory    Status = -2
	ErrorInitializationFailed Status = -3
	ErrorDeviceLost           Status = -4
	ErrorMemoryMapFailed      Status = -5
	ErrorLayerNotPresent      Status = -6
	ErrorExtensionNotPresent  Status = -7
	ErrorFeatureNotPresent    Status = -8
	ErrorIncompatibleDriver   Status = -9
	ErrorTooManyObjects       Status = -10
	ErrorFormatNotSupported   Status = -11
	ErrorFragmentedPool       Status = -12
	ErrorUnknown              Status = -13
	ErrorSurfaceLost          Status = -1000000000
	ErrorNativeWindowInUse    Status = -1000000001
	Suboptimal                Status = 1000001003
	ErrorOutOfDate            Status = -1000001004
	ErrorValidationFailed     Status = -1000011001
)

var statusNames = map[Status]string{
	Success:                   "SUCCESS",
	NotReady:                  "NOT READY",
	Timeout:                   "TIMEOUT",
	EventSet:                  "EVENT SET",
	EventReset:                "EVENT RESET",
	Incomplete:                "INCOMPLETE",
	ErrorOutOfHostMemory:      "OUT OF HOST MEMORY",
	ErrorOutOfDeviceMemory:    "OUT OF DEVICE MEMORY",
	ErrorInitializationFailed: "INITIALIZATION FAILED",
	ErrorDeviceLost:           "DEVICE LOST",
	ErrorMemoryMapFailed:      "MEMORY MAP FAILED",
	ErrorLayerNotPresent:      "LAYER NOT PRESENT",
	ErrorExtensionNotPresent:  "EXTENSION NOT PRESENT",
	ErrorFeatureNotPresent:    "FEATURE NOT PRESENT",
	ErrorIncompatibleDriver:   "INCOMPATIBLE DRIVER",
	ErrorTooManyObjects:       "TOO MANY OBJECTS",
	ErrorFormatNotSupported:   "FORMAT NOT SUPPORTED",
	ErrorFragmentedPool:       "FRAGMENTED POOL",
	ErrorUnknown:              "UNKNOWN",
	ErrorSurfaceLost:          "SURFACE LOST",
	ErrorNativeWindowInUse:    "NATIVE WINDOW IN USE",
	Suboptimal:                "SUBOPTIMAL",
	ErrorOutOfDate:            "OUT OF DATE",
	ErrorValidationFailed:     "VALIDATION FAILED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS(%d)", int32(s))
}

// IsError reports whether the status is a failure code. Positive codes such
// as Suboptimal or Timeout are not errors.
func (s Status) IsError() bool {
	return s < 0
}

// IsStale reports whether the status signals that the presentation surface
// no longer matches the swapchain.
func (s Status) IsStale() bool {
	return s == ErrorOutOfDate || s == Suboptimal
}
