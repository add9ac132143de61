// Package imagedata converts images between raw bytes and the
// self-describing data URL form ("data:<mime>;base64,<payload>") used at
// every boundary of the studio.
package imagedata

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMIMEType is assumed when an encoded image carries no usable header.
const DefaultMIMEType = "image/jpeg"

var (
	ErrMalformed = errors.New("malformed encoded image")
	ErrNotImage  = errors.New("content is not an image")
	ErrEmpty     = errors.New("image is empty")
)

type Image struct {
	MIMEType string
	Data     []byte
}

// Parse splits an encoded image into its mime type and raw bytes.
func Parse(encoded string) (Image, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(encoded), ",")
	if !ok {
		return Image{}, ErrMalformed
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(data) == 0 {
		return Image{}, ErrEmpty
	}

	return Image{MIMEType: mimeFromHeader(header), Data: data}, nil
}

// mimeFromHeader extracts the text between ':' and ';' of a data URL header.
func mimeFromHeader(header string) string {
	_, rest, ok := strings.Cut(header, ":")
	if !ok {
		return DefaultMIMEType
	}
	mime, _, ok := strings.Cut(rest, ";")
	mime = strings.TrimSpace(mime)
	if !ok || mime == "" {
		return DefaultMIMEType
	}
	return mime
}

// New tags raw bytes with a mime type, defaulting when mimeType is blank.
func New(data []byte, mimeType string) Image {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = DefaultMIMEType
	}
	return Image{MIMEType: mimeType, Data: data}
}

// Detect sniffs raw bytes and returns them as an Image when they hold a
// recognised image format.
func Detect(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmpty
	}
	m := mimetype.Detect(data)
	if !strings.HasPrefix(m.String(), "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotImage, m.String())
	}
	return Image{MIMEType: m.String(), Data: data}, nil
}

// String encodes the image as a data URL.
func (img Image) String() string {
	mime := img.MIMEType
	if mime == "" {
		mime = DefaultMIMEType
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Base64 returns only the payload part of the data URL.
func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// Extension returns the file extension for the image's mime type.
func (img Image) Extension() string {
	if m := mimetype.Lookup(img.MIMEType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".jpg"
}

func (img Image) MarshalText() ([]byte, error) {
	return []byte(img.String()), nil
}

func (img *Image) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*img = parsed
	return nil
}
