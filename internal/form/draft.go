// Package form holds the edit drafts behind the create/update dialogs and
// turns them into payloads for the resource services.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Draft is a local, editable copy of a record. Fields keep their insertion
// order so payloads are stable.
type Draft struct {
	// ID is zero while creating.
	ID int64

	fields []Field
	rules  map[string]string

	// AttachmentField names the file part ("file_1", "photo").
	AttachmentField string
	// Filename is the synthetic name every upload is sent with.
	Filename   string
	Attachment Attachment
}

func newDraft(id int64, attachmentField, filename string) *Draft {
	return &Draft{
		ID:              id,
		rules:           make(map[string]string),
		AttachmentField: attachmentField,
		Filename:        filename,
	}
}

// Editing reports whether the draft updates an existing record.
func (d *Draft) Editing() bool {
	return d.ID != 0
}

// RecordID returns the id of the record being edited, or zero.
func (d *Draft) RecordID() int64 {
	return d.ID
}

// Set assigns a field, adding it when new.
func (d *Draft) Set(name, value string) {
	for i := range d.fields {
		if d.fields[i].Name == name {
			d.fields[i].Value = value
			return
		}
	}
	d.fields = append(d.fields, Field{Name: name, Value: value})
}

// Get returns the current value of a field.
func (d *Draft) Get(name string) string {
	for _, f := range d.fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Fields returns the draft's fields in order.
func (d *Draft) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Pick replaces the attachment with a freshly picked local file.
func (d *Draft) Pick(path string) {
	d.Attachment = Local(path)
}

func (d *Draft) rule(name, tag string) {
	d.rules[name] = tag
}

// Validate checks the minimal per-field rules.
func (d *Draft) Validate() error {
	var errs []error
	for _, f := range d.fields {
		tag, ok := d.rules[f.Name]
		if !ok {
			continue
		}
		if err := validate.Var(strings.TrimSpace(f.Value), tag); err != nil {
			errs = append(errs, fieldError(f.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Payload serializes every non-empty scalar field, plus the file part when
// a new local file was picked.
func (d *Draft) Payload(open Opener) (Payload, error) {
	var p Payload
	for _, f := range d.fields {
		if f.Value == "" {
			continue
		}
		p.Fields = append(p.Fields, f)
	}

	if d.AttachmentField != "" && d.Attachment.IsLocal() {
		part, err := preparePart(open, d.Attachment, d.AttachmentField, d.Filename)
		if err != nil {
			return Payload{}, err
		}
		p.File = part
	}
	return p, nil
}

func fieldError(name string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%s: failed %q", name, verrs[0].Tag())
	}
	return fmt.Errorf("%s: %w", name, err)
}

// Submittable is a draft the Submit helper can save.
type Submittable interface {
	RecordID() int64
	Validate() error
	Payload(open Opener) (Payload, error)
}

// Saver creates or updates records of type T.
type Saver[T any] interface {
	Create(ctx context.Context, p Payload) (T, error)
	Update(ctx context.Context, id int64, p Payload) (T, error)
}

// Submit validates and saves the draft. The returned flag is true when a new
// record was created. On failure the draft is left untouched so the dialog
// can stay open.
func Submit[T any](ctx context.Context, saver Saver[T], d Submittable, open Opener) (T, bool, error) {
	var zero T
	if err := d.Validate(); err != nil {
		return zero, false, fmt.Errorf("invalid form: %w", err)
	}

	p, err := d.Payload(open)
	if err != nil {
		return zero, false, fmt.Errorf("building payload: %w", err)
	}

	if id := d.RecordID(); id != 0 {
		rec, err := saver.Update(ctx, id, p)
		return rec, false, err
	}
	rec, err := saver.Create(ctx, p)
	return rec, true, err
}
