package main

import (
	"github.com/xlab/linmath"
)

// framesPerColor is how many frames the clear colour takes to blend from
// one palette entry to the next.
const framesPerColor = 120

var palette = []linmath.Vec4{
	{0.05, 0.05, 0.10, 1},
	{0.40, 0.10, 0.30, 1},
	{0.90, 0.45, 0.10, 1},
	{0.10, 0.55, 0.45, 1},
}

// colorAt returns the clear colour for frame n.
func colorAt(n uint64) linmath.Vec4 {
	step := n % framesPerColor
	from := palette[(n/framesPerColor)%uint64(len(palette))]
	to := palette[(n/framesPerColor+1)%uint64(len(palette))]

	t := float32(step) / framesPerColor
	var c linmath.Vec4
	for i := range c {
		c[i] = from[i] + (to[i]-from[i])*t
	}
	return c
}
