//go:build gocv

package srprep

import (
	"image"

	"github.com/pkg/errors"
	"github.com/wbrown/srprep/imageutil"
	"gocv.io/x/gocv"
)

// OpenCVBackend degrades through OpenCV. It is only available in builds
// with the gocv tag.
const OpenCVBackend = "opencv"

func init() {
	RegisterBackend(OpenCVBackend, DegraderFunc(degradeOpenCV))
}

// degradeOpenCV runs the same blur and resize sequence as
// imageutil.Degrade with cv::GaussianBlur and cv::resize.
func degradeOpenCV(img *imageutil.RGBAImage, factor int) (*imageutil.RGBAImage, error) {
	width, height := img.Width(), img.Height()
	if factor <= 0 {
		return nil, errors.Errorf("upscale factor must be positive, got %d", factor)
	}
	if width/factor == 0 || height/factor == 0 {
		return nil, errors.Errorf("%dx%d image is too small for upscale factor %d", width, height, factor)
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "unable to convert image to mat")
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(src, &blurred, image.Pt(imageutil.BlurKernelSize, imageutil.BlurKernelSize), 0, 0, gocv.BorderDefault)

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(blurred, &small, image.Pt(width/factor, height/factor), 0, 0, gocv.InterpolationLinear)

	restored := gocv.NewMat()
	defer restored.Close()
	gocv.Resize(small, &restored, image.Pt(width, height), 0, 0, gocv.InterpolationCubic)

	out, err := restored.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "unable to convert mat to image")
	}
	return imageutil.RGBAImageFromImage(out), nil
}
