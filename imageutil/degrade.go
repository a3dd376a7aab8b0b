package imageutil

import "fmt"

// BlurKernelSize is the edge length of the Gaussian applied before
// downscaling.
const BlurKernelSize = 3

// Degrade produces the low resolution counterpart of img used as network
// input when training super-resolution models.
//
// The function:
//  1. Blurs with a 3×3 Gaussian whose sigma is derived from the kernel size
//  2. Downscales to (width/factor, height/factor), rounding down, with
//     bilinear interpolation
//  3. Upscales back to the original size with bicubic interpolation
//
// Parameters:
//   - img: The input image
//   - factor: The upscale factor the model is trained for
//
// Returns:
//   - degraded: An image with the same dimensions as img
//   - err: non-nil if factor is not positive or larger than either side
func Degrade(img *RGBAImage, factor int) (*RGBAImage, error) {
	width, height := img.Width(), img.Height()
	if factor <= 0 {
		return nil, fmt.Errorf("upscale factor must be positive, got %d", factor)
	}
	if width/factor == 0 || height/factor == 0 {
		return nil, fmt.Errorf("%dx%d image is too small for upscale factor %d", width, height, factor)
	}

	blurred := GaussianBlur(img, BlurKernelSize, 0)
	small := Resize(blurred, width/factor, height/factor, InterpolationLinear)
	return Resize(small, width, height, InterpolationCubic), nil
}
