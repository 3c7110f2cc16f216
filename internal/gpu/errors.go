package gpu

import (
	"github.com/cockroachdb/errors"
)

// Error kinds. Every failure the renderer reports is marked with exactly one
// of these, so callers can match with errors.Is while the wrapped chain keeps
// the driver's own error and stack.
var (
	ErrExtensionUnsupported                = errors.New("extension unsupported")
	ErrValidationLayerUnavailable          = errors.New("validation layer unavailable")
	ErrDeviceCreationFailed                = errors.New("device creation failed")
	ErrNoSuitablePhysicalDevice            = errors.New("no suitable physical device")
	ErrSurfaceCreationFailed               = errors.New("surface creation failed")
	ErrSwapchainCreationFailed             = errors.New("swapchain creation failed")
	ErrImageViewCreationFailed             = errors.New("image view creation failed")
	ErrShaderModuleCreationFailed          = errors.New("shader module creation failed")
	ErrPipelineCreationFailed              = errors.New("pipeline creation failed")
	ErrMemoryTypeNotFound                  = errors.New("memory type not found")
	ErrBufferOrMemoryAllocationFailed      = errors.New("buffer or memory allocation failed")
	ErrBufferCreationFailed                = errors.New("buffer creation failed")
	ErrMemoryAllocationFailed              = errors.New("memory allocation failed")
	ErrCommandRecordingFailed              = errors.New("command recording failed")
	ErrSynchronizationObjectCreationFailed = errors.New("synchronization object creation failed")
	ErrQueueSubmissionFailed               = errors.New("queue submission failed")
	ErrPresentFailed                       = errors.New("present failed")
)

// parents lists the broader kind a narrow kind also satisfies.
var parents = map[error]error{
	ErrBufferCreationFailed:   ErrBufferOrMemoryAllocationFailed,
	ErrMemoryAllocationFailed: ErrBufferOrMemoryAllocationFailed,
}

var kindNames = []struct {
	kind error
	name string
}{
	{ErrExtensionUnsupported, "ExtensionUnsupported"},
	{ErrValidationLayerUnavailable, "ValidationLayerUnavailable"},
	{ErrDeviceCreationFailed, "DeviceCreationFailed"},
	{ErrNoSuitablePhysicalDevice, "NoSuitablePhysicalDevice"},
	{ErrSurfaceCreationFailed, "SurfaceCreationFailed"},
	{ErrSwapchainCreationFailed, "SwapchainCreationFailed"},
	{ErrImageViewCreationFailed, "ImageViewCreationFailed"},
	{ErrShaderModuleCreationFailed, "ShaderModuleCreationFailed"},
	{ErrPipelineCreationFailed, "PipelineCreationFailed"},
	{ErrMemoryTypeNotFound, "MemoryTypeNotFound"},
	{ErrBufferOrMemoryAllocationFailed, "BufferOrMemoryAllocationFailed"},
	{ErrCommandRecordingFailed, "CommandRecordingFailed"},
	{ErrSynchronizationObjectCreationFailed, "SynchronizationObjectCreationFailed"},
	{ErrQueueSubmissionFailed, "QueueSubmissionFailed"},
	{ErrPresentFailed, "PresentFailed"},
}

// Fail wraps cause with a formatted message and marks it with kind. A nil
// cause produces a fresh error carrying only the message.
func Fail(kind error, cause error, format string, args ...interface{}) error {
	var err error
	if cause == nil {
		err = errors.Newf(format, args...)
	} else {
		err = errors.Wrapf(cause, format, args...)
	}

	err = errors.Mark(err, kind)
	if parent, ok := parents[kind]; ok {
		err = errors.Mark(err, parent)
	}
	return err
}

// KindOf names the error kind err is marked with, or "" if none.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return ""
}
