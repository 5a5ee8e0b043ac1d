package helper

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const MaxUploadSize = int64(5 * 1024 * 1024)

var (
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file exceeds 5 MB")
	ErrUnsupportedType = errors.New("only jpeg, png, webp images and pdf files are accepted")
)

type WebPOptions struct {
	MaxW    int
	MaxH    int
	Quality float32
}

// Prepared is an upload ready for a Store.
type Prepared struct {
	Data        []byte
	ContentType string
	Ext         string
}

func sniff(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}

func decodeImage(data []byte, ct, filename string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch {
	case strings.Contains(ct, "jpeg"):
		return jpeg.Decode(r)
	case strings.Contains(ct, "png"):
		return png.Decode(r)
	case strings.Contains(ct, "webp"):
		return webp.Decode(r)
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".png":
		return png.Decode(r)
	case ".webp":
		return webp.Decode(r)
	}
	return nil, ErrUnsupportedType
}

// Prepare passes PDFs through untouched and re-encodes images as WebP after
// fitting them inside MaxW x MaxH.
func Prepare(data []byte, filename string, opt WebPOptions) (*Prepared, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	ct := sniff(data)
	if ct == "application/pdf" {
		return &Prepared{Data: data, ContentType: ct, Ext: ".pdf"}, nil
	}
	img, err := decodeImage(data, ct, filename)
	if err != nil {
		if errors.Is(err, ErrUnsupportedType) {
			return nil, err
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if opt.MaxW > 0 && opt.MaxH > 0 {
		b := img.Bounds()
		if b.Dx() > opt.MaxW || b.Dy() > opt.MaxH {
			img = imaging.Fit(img, opt.MaxW, opt.MaxH, imaging.CatmullRom)
		}
	}
	q := opt.Quality
	if q <= 0 {
		q = 80
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return &Prepared{Data: buf.Bytes(), ContentType: "image/webp", Ext: ".webp"}, nil
}
