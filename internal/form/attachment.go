package form

import (
	"fmt"
	"io"
	"os"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/imaging"
)

// AttachmentKind tells a freshly picked device file apart from a file that
// already lives on the server.
type AttachmentKind int

// Attachment kinds.
const (
	AttachmentNone AttachmentKind = iota
	AttachmentRemote
	AttachmentLocal
)

// Attachment is the value of a draft's file field.
type Attachment struct {
	Kind AttachmentKind
	Ref  string
}

// Remote wraps a stored server path or URL. Remote attachments are shown
// but never re-uploaded.
func Remote(url string) Attachment {
	if url == "" {
		return Attachment{}
	}
	return Attachment{Kind: AttachmentRemote, Ref: url}
}

// Local wraps a path on the device picked by the user.
func Local(path string) Attachment {
	if path == "" {
		return Attachment{}
	}
	return Attachment{Kind: AttachmentLocal, Ref: path}
}

// IsLocal reports whether the attachment must be uploaded.
func (a Attachment) IsLocal() bool {
	return a.Kind == AttachmentLocal
}

// Opener opens a picked file for reading.
type Opener func(path string) (io.ReadCloser, error)

// OpenFile opens files from the local file system.
func OpenFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// preparePart reads a local attachment and turns it into a JPEG file part
// named field with the synthetic filename.
func preparePart(open Opener, a Attachment, field, filename string) (*client.FilePart, error) {
	if open == nil {
		open = OpenFile
	}
	f, err := open(a.Ref)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", a.Ref, err)
	}
	defer f.Close()

	img, err := imaging.Prepare(f)
	if err != nil {
		return nil, fmt.Errorf("preparing %s: %w", a.Ref, err)
	}

	return &client.FilePart{
		Field:       field,
		Filename:    filename,
		ContentType: imaging.ContentType,
		Data:        img.Data,
	}, nil
}
