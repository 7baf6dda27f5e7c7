// Package optional implements a value which may or may not be set.
package optional

// Optional holds a value of type T together with a flag telling whether it
// was ever set. The zero value is empty.
type Optional[T any] struct {
	value T
	set   bool
}

// Set stores v.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.set = true
}

// Get returns the stored value or the zero value of T when empty.
func (o Optional[T]) Get() T {
	return o.value
}

// HasValue returns true if a value has been set.
func (o Optional[T]) HasValue() bool {
	return o.set
}
