package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// PhotoKind tags which representation a Photo carries.
type PhotoKind string

const (
	PhotoNone    PhotoKind = ""
	PhotoBlob    PhotoKind = "blob"
	PhotoDataURI PhotoKind = "data-uri"
)

var ErrInvalidDataURI = errors.New("invalid data URI")

// Photo is the photo attached to a pending write. Exactly one of Blob or
// DataURI is meaningful, selected by Kind; the choice is made once when the
// write is queued.
type Photo struct {
	Kind    PhotoKind
	Blob    []byte
	DataURI string
}

// BlobPhoto wraps raw image bytes.
func BlobPhoto(b []byte) Photo {
	return Photo{Kind: PhotoBlob, Blob: b}
}

// DataURIPhoto wraps a "data:<mime>;base64,<payload>" string.
func DataURIPhoto(s string) Photo {
	return Photo{Kind: PhotoDataURI, DataURI: s}
}

// Bytes returns the binary content, decoding a data URI if needed.
// It returns (nil, "", nil) for PhotoNone.
func (p Photo) Bytes() ([]byte, string, error) {
	switch p.Kind {
	case PhotoNone:
		return nil, "", nil
	case PhotoBlob:
		return p.Blob, blobType(p.Blob), nil
	case PhotoDataURI:
		return DecodeDataURI(p.DataURI)
	default:
		return nil, "", fmt.Errorf("unknown photo kind %q", p.Kind)
	}
}

// blobType sniffs the image type of b, falling back to image/jpeg when the
// content is not recognised as an image.
func blobType(b []byte) string {
	if ct := http.DetectContentType(b); strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "image/jpeg"
}

// DecodeDataURI decodes a base64 data URI into its payload and media type.
// A bare base64 string (no "data:" prefix) is accepted as image/jpeg.
func DecodeDataURI(s string) ([]byte, string, error) {
	mediaType := "image/jpeg"
	payload := strings.TrimSpace(s)

	if strings.HasPrefix(payload, "data:") {
		header, data, ok := strings.Cut(payload[len("data:"):], ",")
		if !ok {
			return nil, "", ErrInvalidDataURI
		}
		params := strings.Split(header, ";")
		if params[0] != "" {
			mediaType = params[0]
		}
		if params[len(params)-1] != "base64" {
			return nil, "", fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
		}
		payload = data
	}

	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
	}
	return b, mediaType, nil
}
