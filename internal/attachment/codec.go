// Package attachment converts raw uploaded files to and from the
// transport-safe encoded form carried inside user messages.
package attachment

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/rachitsh/studybuddy/internal/domain"
)

// MaxEncodedBytes caps the raw size accepted by Encode. Gemini inline parts
// reject payloads much beyond this anyway.
const MaxEncodedBytes = 20 << 20

// Encode reads the full byte stream and wraps it as a base64 attachment.
// It fails only when the stream cannot be fully read or exceeds the cap.
func Encode(r io.Reader, mimeType, name string) (domain.Attachment, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxEncodedBytes+1))
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	if len(raw) > MaxEncodedBytes {
		return domain.Attachment{}, fmt.Errorf("%w: file larger than %d bytes", domain.ErrEncoding, MaxEncodedBytes)
	}
	return domain.Attachment{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
		Name:     name,
	}, nil
}

// Decode recovers the original bytes of an encoded attachment.
func Decode(a domain.Attachment) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	return raw, nil
}

// DisplayKind tells a renderer how to present an attachment.
type DisplayKind string

const (
	DisplayInlineImage DisplayKind = "inline_image"
	DisplayFile        DisplayKind = "file"
)

// Displayable is a renderable descriptor for an attachment. For images the
// DataURI field carries an inline-displayable form; for everything else only
// name and type are exposed, never the bytes.
type Displayable struct {
	Kind     DisplayKind `json:"kind"`
	Name     string      `json:"name"`
	MimeType string      `json:"mime_type"`
	DataURI  string      `json:"data_uri,omitempty"`
}

// ToDisplayable maps an attachment to its renderable descriptor. Pure, no I/O.
func ToDisplayable(a domain.Attachment) Displayable {
	d := Displayable{
		Kind:     DisplayFile,
		Name:     a.Name,
		MimeType: a.MimeType,
	}
	if strings.HasPrefix(a.MimeType, "image/") {
		d.Kind = DisplayInlineImage
		d.DataURI = "data:" + a.MimeType + ";base64," + a.Data
	}
	return d
}
