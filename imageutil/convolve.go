package imageutil

import "math"

// smallGaussianTab holds the kernels OpenCV uses for odd sizes up to 7
// when sigma is not positive.
var smallGaussianTab = [][]float64{
	{1},
	{0.25, 0.5, 0.25},
	{0.0625, 0.25, 0.375, 0.25, 0.0625},
	{0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// GaussianKernel returns the normalized 1D Gaussian kernel of length
// ksize. A sigma <= 0 derives sigma from the kernel size with
// 0.3*((ksize-1)*0.5-1)+0.8, and for ksize 1, 3, 5 and 7 the fixed tables
// are returned instead, the same as cv::getGaussianKernel.
func GaussianKernel(ksize int, sigma float64) []float64 {
	if ksize%2 == 1 && ksize <= 2*len(smallGaussianTab)-1 && sigma <= 0 {
		k := make([]float64, ksize)
		copy(k, smallGaussianTab[ksize/2])
		return k
	}

	if sigma <= 0 {
		sigma = ((float64(ksize)-1)*0.5-1)*0.3 + 0.8
	}
	scale := -0.5 / (sigma * sigma)

	k := make([]float64, ksize)
	sum := 0.0
	for i := range k {
		x := float64(i) - float64(ksize-1)*0.5
		k[i] = math.Exp(scale * x * x)
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// fixedKernel converts a normalized kernel to unsigned 8.8 fixed point.
// Rounding residue goes to the center tap so the taps sum to exactly 1.0.
func fixedKernel(k []float64) []uint32 {
	fk := make([]uint32, len(k))
	var sum int64
	for i, v := range k {
		fk[i] = uint32(math.Round(v * 256))
		sum += int64(fk[i])
	}
	center := len(k) / 2
	fk[center] = uint32(int64(fk[center]) + 256 - sum)
	return fk
}

// GaussianBlur blurs img with a ksize×ksize Gaussian (ksize must be odd).
//
// The filter is separable and runs in fixed point: the horizontal pass
// keeps 8 fractional bits, the vertical pass accumulates 16 and rounds to
// nearest. Borders reflect without repeating the edge pixel
// (gfedcb|abcdefgh|gfedcba). For the tabulated kernels this reproduces
// cv::GaussianBlur on CV_8UC3 data exactly.
func GaussianBlur(img *RGBAImage, ksize int, sigma float64) *RGBAImage {
	width, height := img.Width(), img.Height()
	kernel := fixedKernel(GaussianKernel(ksize, sigma))
	radius := ksize / 2

	// Horizontal pass into 8.8 fixed point, three channels per pixel.
	rows := make([]uint32, width*height*3)
	for y := 0; y < height; y++ {
		src := img.Pix[y*img.Stride:]
		dst := rows[y*width*3:]
		for x := 0; x < width; x++ {
			var r, g, b uint32
			for i, k := range kernel {
				sx := borderReflect101(x+i-radius, width) * 4
				r += k * uint32(src[sx+0])
				g += k * uint32(src[sx+1])
				b += k * uint32(src[sx+2])
			}
			dst[x*3+0], dst[x*3+1], dst[x*3+2] = r, g, b
		}
	}

	// Vertical pass into 16.16 fixed point, rounded back to 8 bits.
	out := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < width*3; x++ {
			var acc uint32
			for i, k := range kernel {
				sy := borderReflect101(y+i-radius, height)
				acc += k * rows[sy*width*3+x]
			}
			dst[x/3*4+x%3] = uint8((acc + 1<<15) >> 16)
		}
	}
	return out
}

// borderReflect101 maps an out of range coordinate p into [0, n) by
// reflecting about the edge pixels.
func borderReflect101(p, n int) int {
	if n == 1 {
		return 0
	}
	for p < 0 || p >= n {
		if p < 0 {
			p = -p
		} else {
			p = 2*(n-1) - p
		}
	}
	return p
}

// clampInt clamps an integer to the given range.
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
