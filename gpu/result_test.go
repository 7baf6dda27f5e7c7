package gpu_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"

	"vulkan-wrappers/frame"
	"vulkan-wrappers/gpu"
)

func TestResult(t *testing.T) {
	for _, res := range []vk.Result{vk.Success, vk.Incomplete, vk.Suboptimal} {
		assert.NoError(t, gpu.Result(res), "result %d", res)
	}

	for idx, tc := range []struct {
		res  vk.Result
		want error
	}{
		{vk.Timeout, frame.ErrTimeout},
		{vk.NotReady, frame.ErrTimeout},
		{vk.ErrorOutOfDate, frame.ErrSurfaceLost},
		{vk.ErrorSurfaceLost, frame.ErrSurfaceLost},
		{vk.ErrorDeviceLost, frame.ErrDeviceLost},
		{vk.ErrorOutOfHostMemory, frame.ErrAllocation},
		{vk.ErrorOutOfDeviceMemory, frame.ErrAllocation},
	} {
		err := gpu.Result(tc.res)
		if assert.Error(t, err, "case %d", idx) {
			assert.True(t, errors.Is(err, tc.want), "case %d: %v", idx, err)
		}
	}

	err := gpu.Result(vk.ErrorInitializationFailed)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, frame.ErrSurfaceLost))
}
