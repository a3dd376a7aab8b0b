package imageutil

import "math"

// MaxPSNR is reported for identical images, whose PSNR is unbounded.
const MaxPSNR = 100.0

// CalculateMSE calculates the Mean Squared Error between two RGBA images
// over the three color channels. Images of different size return
// math.MaxFloat64.
func CalculateMSE(img1, img2 *RGBAImage) float64 {
	if img1.Width() != img2.Width() || img1.Height() != img2.Height() {
		return math.MaxFloat64
	}

	width, height := img1.Width(), img1.Height()
	var sumSq float64
	count := float64(width * height * 3)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c1 := img1.RGBAAt(x, y)
			c2 := img2.RGBAAt(x, y)
			dr := float64(c1.R) - float64(c2.R)
			dg := float64(c1.G) - float64(c2.G)
			db := float64(c1.B) - float64(c2.B)
			sumSq += dr*dr + dg*dg + db*db
		}
	}

	return sumSq / count
}

// CalculateMaxDiff calculates the maximum per-channel difference between
// two images, or 256 if their sizes differ.
func CalculateMaxDiff(img1, img2 *RGBAImage) int {
	if img1.Width() != img2.Width() || img1.Height() != img2.Height() {
		return 256
	}

	maxDiff := 0
	for y := 0; y < img1.Height(); y++ {
		for x := 0; x < img1.Width(); x++ {
			c1, c2 := img1.RGBAAt(x, y), img2.RGBAAt(x, y)
			for _, d := range [3]int{
				int(c1.R) - int(c2.R),
				int(c1.G) - int(c2.G),
				int(c1.B) - int(c2.B),
			} {
				if d < 0 {
					d = -d
				}
				if d > maxDiff {
					maxDiff = d
				}
			}
		}
	}
	return maxDiff
}

// PSNR returns the peak signal-to-noise ratio in dB of test against
// reference, measured on luma. Identical images score MaxPSNR; images of
// different size score 0.
func PSNR(reference, test *RGBAImage) float64 {
	if reference.Width() != test.Width() || reference.Height() != test.Height() {
		return 0
	}

	ref, got := ToLuma(reference), ToLuma(test)
	if len(ref) == 0 {
		return MaxPSNR
	}
	var sumSq float64
	for i := range ref {
		d := ref[i] - got[i]
		sumSq += d * d
	}
	mse := sumSq / float64(len(ref))
	if mse == 0 {
		return MaxPSNR
	}
	return math.Min(MaxPSNR, 10*math.Log10(255*255/mse))
}
