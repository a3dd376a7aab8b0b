package imageutil

import (
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// LoadImage loads an image from the specified path as a three channel
// RGBAImage. Supports PNG, JPEG, GIF, BMP, TIFF and WebP.
func LoadImage(path string) (*RGBAImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return RGBAImageFromImage(img), nil
}

// LoadConfig reads only the header of the image at path and returns its
// width and height.
func LoadConfig(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image config %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// SavePNG saves an image as PNG to the specified path, replacing any
// existing file. An RGBAImage is encoded through its *image.RGBA.
func SavePNG(img image.Image, path string) error {
	if rgba, ok := img.(*RGBAImage); ok {
		img = rgba.RGBA
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
