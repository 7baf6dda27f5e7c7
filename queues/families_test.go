package queues_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vulkan-wrappers/queues"
)

func TestFind(t *testing.T) {
	for idx, tc := range []struct {
		families          []queues.Family
		complete, shared  bool
		graphics, present uint32
	}{
		{
			families: []queues.Family{{Graphics: true, Present: true}},
			complete: true, shared: true,
		},
		{
			families: []queues.Family{{Graphics: true}, {Present: true}, {Graphics: true, Present: true}},
			complete: true, shared: true,
			graphics: 2, present: 2,
		},
		{
			families: []queues.Family{{Present: true}, {Graphics: true}},
			complete: true,
			graphics: 1, present: 0,
		},
		{
			families: []queues.Family{{Graphics: true}, {}},
		},
		{},
	} {
		indices := queues.Find(tc.families)
		assert.Equal(t, tc.complete, indices.IsComplete(), "case %d", idx)
		assert.Equal(t, tc.shared, indices.Shared(), "case %d", idx)
		if tc.complete {
			assert.Equal(t, tc.graphics, indices.Graphics.Get(), "case %d", idx)
			assert.Equal(t, tc.present, indices.Present.Get(), "case %d", idx)
		}
	}
}
