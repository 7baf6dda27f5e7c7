package queues

import (
	"vulkan-wrappers/optional"
)

// Family describes the capabilities of one queue family of a physical device
// which matter to the renderer.
type Family struct {
	Graphics bool
	Present  bool
}

// FamilyIndices holds the indexes of Vulkan queue families needed by the renderer.
type FamilyIndices struct {

	// Graphics is the index of the graphics queue family.
	Graphics optional.Optional[uint32]

	// Present is the index of the queue family used for presenting to the drawing
	// surface.
	Present optional.Optional[uint32]
}

// IsComplete returns true if all families have been set.
func (f *FamilyIndices) IsComplete() bool {
	return f.Graphics.HasValue() && f.Present.HasValue()
}

// Shared returns true if graphics and present work go to the same family.
func (f *FamilyIndices) Shared() bool {
	return f.IsComplete() && f.Graphics.Get() == f.Present.Get()
}

// Find picks queue families out of the families of a device. A family which
// supports both graphics and present wins over the first separate matches.
func Find(families []Family) FamilyIndices {
	indices := FamilyIndices{}

	for i, family := range families {
		if family.Graphics && family.Present {
			indices.Graphics.Set(uint32(i))
			indices.Present.Set(uint32(i))
			return indices
		}

		if family.Graphics && !indices.Graphics.HasValue() {
			indices.Graphics.Set(uint32(i))
		}
		if family.Present && !indices.Present.HasValue() {
			indices.Present.Set(uint32(i))
		}
	}

	return indices
}
