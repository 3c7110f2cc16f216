package gpu

// Context bundles the device-level handles every renderer component needs.
// It is filled in once by the backend during initialization and never
// mutated afterward; components receive it by pointer and only read it.
type Context struct {
	Device Device

	GraphicsQueue Queue
	PresentQueue  Queue
	// TransferQueue carries staged uploads. It may be the graphics queue.
	TransferQueue Queue

	CommandPool  CommandPool
	TransferPool CommandPool

	Swapchain    Swapchain
	Extent       Extent2D
	RenderPass   RenderPass
	Pipeline     Pipeline
	Framebuffers []Framebuffer
}

// ImageCount is the number of presentable swapchain images. It is
// independent of how many frames may be in flight.
func (c *Context) ImageCount() int {
	return len(c.Framebuffers)
}
