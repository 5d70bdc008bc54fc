// Package imageproc loads images and applies the pre-processing steps that run
// before conversion.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"img2ascii/internal/domain"
)

// SupportedExtensions lists the file extensions the loader can decode.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}

var errEmptyImage = errors.New("image is empty")

// Decode reads a full image from r. JPEG EXIF orientation is applied.
// maxPixels bounds width*height before any pixel data is decoded; zero
// disables the check.
func Decode(r io.Reader, maxPixels int) (image.Image, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok && maxPixels > 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, domain.DecodeError("decode", "", err)
		}
		rs = bytes.NewReader(data)
	}
	if rs != nil {
		return decode(rs, maxPixels)
	}
	return decodeImage(r)
}

// DecodeBytes decodes an in-memory image such as an HTTP upload.
func DecodeBytes(b []byte, maxPixels int) (image.Image, error) {
	if len(b) == 0 {
		return nil, domain.DecodeError("decode", "", errEmptyImage)
	}
	return decode(bytes.NewReader(b), maxPixels)
}

func decode(rs io.ReadSeeker, maxPixels int) (image.Image, error) {
	if maxPixels > 0 {
		start, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, domain.DecodeError("decode", "", err)
		}
		if err := checkDimensions(rs, maxPixels); err != nil {
			return nil, err
		}
		if _, err := rs.Seek(start, io.SeekStart); err != nil {
			return nil, domain.DecodeError("decode", "", err)
		}
	}
	return decodeImage(rs)
}

// checkDimensions reads only the image header.
func checkDimensions(r io.Reader, maxPixels int) error {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return domain.DecodeError("decode", "", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return domain.DecodeError("decode", "", errEmptyImage)
	}
	if cfg.Width > maxPixels/cfg.Height {
		return domain.ValidationError("decode", "image is %dx%d pixels, limit is %d pixels",
			cfg.Width, cfg.Height, maxPixels)
	}
	return nil
}

func decodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.DecodeError("decode", "", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, domain.DecodeError("decode", "", errEmptyImage)
	}
	return img, nil
}

// Open decodes the image stored at path under the same pixel limit as Decode.
func Open(path string, maxPixels int) (image.Image, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, domain.DecodeError("open", path, err)
	}
	if st.IsDir() {
		return nil, domain.DecodeError("open", path, fmt.Errorf("%s is a directory", path))
	}
	if st.Size() == 0 {
		return nil, domain.DecodeError("open", path, errEmptyImage)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, domain.DecodeError("open", path, err)
	}
	defer f.Close()

	img, err := decode(f, maxPixels)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			de.Op, de.Path = "open", path
		}
		return nil, err
	}
	return img, nil
}
