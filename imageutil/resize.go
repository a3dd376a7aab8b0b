package imageutil

import "math"

// Interpolation specifies the interpolation method for resizing.
type Interpolation int

const (
	// InterpolationLinear uses bilinear interpolation.
	// Equivalent to OpenCV's INTER_LINEAR, including its switch to a 2×2
	// box average when both axes shrink by exactly two.
	InterpolationLinear Interpolation = iota

	// InterpolationCubic uses bicubic interpolation over a 4×4
	// neighbourhood. Equivalent to OpenCV's INTER_CUBIC.
	InterpolationCubic
)

const (
	// resizeCoefBits is the fixed point precision of the interpolation
	// weights (INTER_RESIZE_COEF_BITS in OpenCV).
	resizeCoefBits  = 11
	resizeCoefScale = 1 << resizeCoefBits

	// cubicA is the Keys kernel parameter OpenCV uses for INTER_CUBIC.
	cubicA = -0.75
)

// String returns the OpenCV name of the interpolation.
func (i Interpolation) String() string {
	switch i {
	case InterpolationLinear:
		return "INTER_LINEAR"
	case InterpolationCubic:
		return "INTER_CUBIC"
	}
	return "unknown"
}

// Resize resizes an RGBA image to the specified dimensions using the
// given interpolation method. Width and height must be positive; resizing
// to the current size returns a copy.
func Resize(img *RGBAImage, width, height int, interp Interpolation) *RGBAImage {
	srcW, srcH := img.Width(), img.Height()
	if srcW == width && srcH == height {
		return img.Clone()
	}

	if interp == InterpolationLinear && srcW == 2*width && srcH == 2*height {
		return resizeAreaHalf(img)
	}

	ksize := 2
	if interp == InterpolationCubic {
		ksize = 4
	}
	xofs, alpha := resizeCoeffs(srcW, width, interp)
	yofs, beta := resizeCoeffs(srcH, height, interp)

	// Horizontal pass over every source row. Results carry
	// resizeCoefBits fractional bits.
	rowLen := width * 3
	hbuf := make([]int32, srcH*rowLen)
	for sy := 0; sy < srcH; sy++ {
		src := img.Pix[sy*img.Stride:]
		dst := hbuf[sy*rowLen:]
		for dx := 0; dx < width; dx++ {
			a := alpha[dx*ksize:]
			first := xofs[dx] - (ksize/2 - 1)
			var r, g, b int32
			for k := 0; k < ksize; k++ {
				sx := clampInt(first+k, 0, srcW-1) * 4
				r += int32(src[sx+0]) * a[k]
				g += int32(src[sx+1]) * a[k]
				b += int32(src[sx+2]) * a[k]
			}
			dst[dx*3+0], dst[dx*3+1], dst[dx*3+2] = r, g, b
		}
	}

	out := NewRGBAImage(width, height)
	rows := make([][]int32, ksize)
	for dy := 0; dy < height; dy++ {
		first := yofs[dy] - (ksize/2 - 1)
		for k := range rows {
			sy := clampInt(first+k, 0, srcH-1)
			rows[k] = hbuf[sy*rowLen : (sy+1)*rowLen]
		}
		b := beta[dy*ksize : (dy+1)*ksize]
		dst := out.Pix[dy*out.Stride:]
		for x := 0; x < rowLen; x++ {
			var v int32
			if ksize == 2 {
				v = verticalLinear(rows[0][x], rows[1][x], b[0], b[1])
			} else {
				v = verticalCubic(rows[0][x], rows[1][x], rows[2][x], rows[3][x], b)
			}
			dst[x/3*4+x%3] = uint8(clampInt(int(v), 0, 255))
		}
	}
	return out
}

// resizeCoeffs maps every destination index to the source index of its
// interpolation window and the window's fixed point weights, ksize
// weights per destination index.
func resizeCoeffs(srcLen, dstLen int, interp Interpolation) (ofs []int, coeffs []int32) {
	ksize := 2
	if interp == InterpolationCubic {
		ksize = 4
	}
	scale := 1 / (float64(dstLen) / float64(srcLen))

	ofs = make([]int, dstLen)
	coeffs = make([]int32, dstLen*ksize)
	for d := 0; d < dstLen; d++ {
		f := float32((float64(d)+0.5)*scale - 0.5)
		s := int(math.Floor(float64(f)))
		f -= float32(s)

		var w [4]float32
		switch interp {
		case InterpolationCubic:
			w = cubicCoeffs(f)
		default:
			if s < 0 {
				f, s = 0, 0
			}
			if s >= srcLen-1 {
				f, s = 0, srcLen-1
			}
			w[0], w[1] = 1-f, f
		}

		ofs[d] = s
		for k := 0; k < ksize; k++ {
			coeffs[d*ksize+k] = int32(math.RoundToEven(float64(w[k] * resizeCoefScale)))
		}
	}
	return ofs, coeffs
}

// cubicCoeffs returns the four Keys kernel weights for a sample at
// fractional offset x from its second tap.
func cubicCoeffs(x float32) [4]float32 {
	const a = float32(cubicA)
	var w [4]float32
	// Each product is rounded to float32 before it is added, as in
	// verticalCubic.
	x0, x2 := x+1, 1-x
	w[0] = float32(float32(float32(float32(float32(a*x0)-5*a)*x0)+8*a)*x0) - 4*a
	w[1] = float32(float32(float32(float32((a+2)*x)-(a+3))*x)*x) + 1
	w[2] = float32(float32(float32(float32((a+2)*x2)-(a+3))*x2)*x2) + 1
	w[3] = 1 - w[0] - w[1] - w[2]
	return w
}

// verticalLinear blends two horizontally interpolated rows. It follows
// the vectorized OpenCV kernel, which drops four bits before the 16-bit
// multiply and rounds the remaining two.
func verticalLinear(s0, s1, b0, b1 int32) int32 {
	return ((b0*(s0>>4))>>16 + (b1*(s1>>4))>>16 + 2) >> 2
}

// verticalCubic blends four horizontally interpolated rows in float32,
// accumulating from the last row as OpenCV's vectorized kernel does, and
// rounds half to even.
func verticalCubic(s0, s1, s2, s3 int32, beta []int32) int32 {
	const scale = float32(1.0 / (resizeCoefScale * resizeCoefScale))
	b0 := float32(beta[0]) * scale
	b1 := float32(beta[1]) * scale
	b2 := float32(beta[2]) * scale
	b3 := float32(beta[3]) * scale

	// Explicit conversions keep each product rounded separately.
	acc := float32(float32(s3) * b3)
	acc = float32(float32(s2)*b2) + acc
	acc = float32(float32(s1)*b1) + acc
	acc = float32(float32(s0)*b0) + acc
	return int32(math.RoundToEven(float64(acc)))
}

// resizeAreaHalf halves both dimensions by averaging 2×2 blocks, rounding
// half up.
func resizeAreaHalf(img *RGBAImage) *RGBAImage {
	width, height := img.Width()/2, img.Height()/2
	out := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		top := img.Pix[(2*y)*img.Stride:]
		bottom := img.Pix[(2*y+1)*img.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < width; x++ {
			for c := 0; c < 3; c++ {
				i := 8*x + c
				sum := uint32(top[i]) + uint32(top[i+4]) + uint32(bottom[i]) + uint32(bottom[i+4])
				dst[4*x+c] = uint8((sum + 2) >> 2)
			}
		}
	}
	return out
}
