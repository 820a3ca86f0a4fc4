package client

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Multipart is a form body with ordered fields and optional file parts.
type Multipart struct {
	fields []formField
	files  []FilePart
}

type formField struct {
	name  string
	value string
}

// FilePart is a binary part of a multipart body.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// NewMultipart creates an empty form body.
func NewMultipart() *Multipart {
	return &Multipart{}
}

// AddField appends a scalar field.
func (m *Multipart) AddField(name, value string) {
	m.fields = append(m.fields, formField{name: name, value: value})
}

// AddFile appends a file part.
func (m *Multipart) AddFile(part FilePart) {
	m.files = append(m.files, part)
}

// Field returns the first value of the named field.
func (m *Multipart) Field(name string) (string, bool) {
	for _, f := range m.fields {
		if f.name == name {
			return f.value, true
		}
	}
	return "", false
}

// File returns the file part for field, if present.
func (m *Multipart) File(field string) (FilePart, bool) {
	for _, f := range m.files {
		if f.Field == field {
			return f, true
		}
	}
	return FilePart{}, false
}

// HasFile reports whether any file part is attached.
func (m *Multipart) HasFile() bool {
	return len(m.files) > 0
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode serializes the body and returns it with its content type.
func (m *Multipart) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range m.fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f.name, err)
		}
	}

	for _, f := range m.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Filename)))
		h.Set("Content-Type", f.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("writing part %s: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
