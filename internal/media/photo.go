package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
)

// MaxPhotoBytes caps a decoded upload.
const MaxPhotoBytes = 5 << 20

// Pixel budget checked from the image header before any decode.
const (
	MaxPhotoSide   = 8000
	MaxPhotoPixels = 40_000_000
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

var (
	ErrInvalidDataURI  = errors.New("photo must be a base64 data uri")
	ErrUnsupportedType = errors.New("photo must be a jpeg or png image")
	ErrTooLarge        = errors.New("photo exceeds 5MB or 40 megapixels")
	ErrUndecodable     = errors.New("photo could not be decoded")
)

type Photo struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI accepts data:<mime>;base64,<payload>.
func ParseDataURI(uri string) (Photo, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, "data:") {
		return Photo{}, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || payload == "" {
		return Photo{}, ErrInvalidDataURI
	}
	mimeType, encoding, ok := strings.Cut(header, ";")
	if !ok || encoding != "base64" {
		return Photo{}, ErrInvalidDataURI
	}
	mimeType = strings.ToLower(mimeType)
	if !supported(mimeType) {
		return Photo{}, ErrUnsupportedType
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxPhotoBytes+2 {
		return Photo{}, ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return Photo{}, ErrInvalidDataURI
	}
	if len(data) > MaxPhotoBytes {
		return Photo{}, ErrTooLarge
	}
	return Photo{MIMEType: mimeType, Data: data}, nil
}

// ReadUpload reads a multipart file body. The declared type is ignored in
// favour of content sniffing.
func ReadUpload(r io.Reader) (Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoBytes+1))
	if err != nil {
		return Photo{}, fmt.Errorf("read upload failed: %w", err)
	}
	if len(data) > MaxPhotoBytes {
		return Photo{}, ErrTooLarge
	}
	if len(data) == 0 {
		return Photo{}, ErrUndecodable
	}
	mimeType := http.DetectContentType(data)
	if !supported(mimeType) {
		return Photo{}, ErrUnsupportedType
	}
	return Photo{MIMEType: mimeType, Data: data}, nil
}

func (p Photo) DataURI() string {
	return "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Normalize bounds the longest side to maxSide and re-encodes as JPEG.
// Photos already within bounds are returned untouched.
func Normalize(p Photo, maxSide int) (Photo, error) {
	img, err := Decode(p)
	if err != nil {
		return Photo{}, err
	}
	if maxSide <= 0 {
		return p, nil
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxSide {
		return p, nil
	}

	nw := w * maxSide / longest
	nh := h * maxSide / longest
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return Photo{}, fmt.Errorf("encode photo failed: %w", err)
	}
	return Photo{MIMEType: MIMEJPEG, Data: buf.Bytes()}, nil
}

// Decode returns the pixel data of a jpeg or png photo. The header is read
// first so oversized dimensions are refused without allocating pixels.
func Decode(p Photo) (image.Image, error) {
	if err := checkDimensions(p); err != nil {
		return nil, err
	}

	var (
		img image.Image
		err error
	)
	switch p.MIMEType {
	case MIMEJPEG:
		img, err = jpeg.Decode(bytes.NewReader(p.Data))
	case MIMEPNG:
		img, err = png.Decode(bytes.NewReader(p.Data))
	default:
		return nil, ErrUnsupportedType
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, nil
}

func checkDimensions(p Photo) error {
	var (
		cfg image.Config
		err error
	)
	switch p.MIMEType {
	case MIMEJPEG:
		cfg, err = jpeg.DecodeConfig(bytes.NewReader(p.Data))
	case MIMEPNG:
		cfg, err = png.DecodeConfig(bytes.NewReader(p.Data))
	default:
		return ErrUnsupportedType
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if cfg.Width > MaxPhotoSide || cfg.Height > MaxPhotoSide ||
		int64(cfg.Width)*int64(cfg.Height) > MaxPhotoPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

func supported(mimeType string) bool {
	return mimeType == MIMEJPEG || mimeType == MIMEPNG
}
