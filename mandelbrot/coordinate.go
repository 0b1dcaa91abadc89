package mandelbrot

// Normalize maps the pixel (x, y) of a width by height image onto the
// complex plane. The real axis spans [-1/zoom, 1/zoom] across the width and
// the imaginary axis is scaled by the aspect ratio so pixels stay square.
// The plane origin is added by the caller.
func Normalize(x int, y int, width int, height int, zoom float64) complex128 {
	nx := 2*(float64(x)/float64(width)) - 1
	ny := 2*(float64(y)/float64(height)) - 1
	return complex(nx/zoom, ny*(float64(height)/float64(width))/zoom)
}

// PixelStep is the distance on the plane between two neighbouring pixels
// along each axis.
func PixelStep(width int, height int, zoom float64) complex128 {
	return Normalize(1, 1, width, height, zoom) - Normalize(0, 0, width, height, zoom)
}
