// Package preprocess converts source images into the normalized NHWC float32
// tensors the scoring models expect. Preparation is deterministic: the same
// source and profile always produce identical tensor data.
package preprocess

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
)

// Source is an image in one of the accepted input forms: a file path, an
// already-decoded image, or a raw RGB pixel array. Construct with FromPath,
// FromImage, or FromPixels.
type Source struct {
	path   string
	img    image.Image
	pixels []float32
	pixH   int
	pixW   int
}

func FromPath(path string) Source { return Source{path: path} }

func FromImage(img image.Image) Source { return Source{img: img} }

// FromPixels wraps a raw HxWx3 RGB array with values in 0..255. Values are
// clamped during conversion.
func FromPixels(data []float32, height, width int) Source {
	return Source{pixels: data, pixH: height, pixW: width}
}

// decode normalizes any source form to a decoded image.
func (s Source) decode() (image.Image, error) {
	switch {
	case s.img != nil:
		return s.img, nil
	case s.pixels != nil:
		if len(s.pixels) != s.pixH*s.pixW*3 {
			return nil, fmt.Errorf("pixel array length %d does not match %dx%dx3", len(s.pixels), s.pixH, s.pixW)
		}
		return pixelsToImage(s.pixels, s.pixH, s.pixW), nil
	case s.path != "":
		f, err := os.Open(s.path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.path, err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("empty image source")
	}
}

// Prepare resizes the source to exactly targetH x targetW (whole image
// squashed, no crop), flattens alpha/grayscale to 3-channel RGB, applies the
// named profile transform, and returns the result with a leading batch
// dimension of 1. All failures are wrapped in a PreprocessError.
func Prepare(src Source, profileName string, targetH, targetW int) (*Tensor, error) {
	profile, err := LookupProfile(profileName)
	if err != nil {
		return nil, &PreprocessError{Cause: err}
	}
	img, err := src.decode()
	if err != nil {
		return nil, &PreprocessError{Cause: err}
	}
	resized := resize.Resize(uint(targetW), uint(targetH), img, resize.Lanczos3)

	data := make([]float32, targetH*targetW*3)
	i := 0
	bounds := resized.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// RGBA() premultiplies but returns 16-bit channels; models were
			// trained on 8-bit values, so shift down.
			r, g, b, _ := resized.At(x, y).RGBA()
			data[i] = float32(r >> 8)
			data[i+1] = float32(g >> 8)
			data[i+2] = float32(b >> 8)
			i += 3
		}
	}

	profile.Apply(data)

	return &Tensor{
		Data: data,
		Dims: [4]int64{1, int64(targetH), int64(targetW), 3},
	}, nil
}

func pixelsToImage(data []float32, h, w int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := (y*w + x) * 3
			img.SetRGBA(x, y, color.RGBA{
				R: clamp8(data[base]),
				G: clamp8(data[base+1]),
				B: clamp8(data[base+2]),
				A: 0xff,
			})
		}
	}
	return img
}

func clamp8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
