package gpu

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
)

// Result converts a Vulkan result code into an error tagged with the
// matching frame error category. Success and partial successes which still
// produced a usable result map to nil.
func Result(res vk.Result) error {
	switch res {
	case vk.Success, vk.Incomplete, vk.Suboptimal:
		return nil
	}

	err := vk.Error(res)
	if err == nil {
		err = errors.Newf("vulkan result %d", res)
	} else {
		err = errors.Wrapf(err, "vulkan result %d", res)
	}

	switch res {
	case vk.Timeout, vk.NotReady:
		return errors.Mark(err, frame.ErrTimeout)
	case vk.ErrorOutOfDate, vk.ErrorSurfaceLost:
		return errors.Mark(err, frame.ErrSurfaceLost)
	case vk.ErrorDeviceLost:
		return errors.Mark(err, frame.ErrDeviceLost)
	case vk.ErrorOutOfHostMemory, vk.ErrorOutOfDeviceMemory, vk.ErrorTooManyObjects:
		return errors.Mark(err, frame.ErrAllocation)
	}
	return err
}
