package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
)

// halProvider is implemented by device providers that expose their HAL
// objects, such as gogpu applications.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewFromProvider creates a Factory sharing the device of provider. The
// provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Factory, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T, not hal.Device", ErrNoHALProvider, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T, not hal.Queue", ErrNoHALProvider, hp.HalQueue())
	}

	gfx.ComponentLogger("native").Debug("using shared device", "surface_format", provider.SurfaceFormat())
	return New(device, queue, opts...), nil
}
