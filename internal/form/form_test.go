package form

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/erazemk/soporte/internal/model"
)

func pngOpener(t *testing.T, w, h int) Opener {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	data := buf.Bytes()
	return func(string) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func failingOpener(string) (io.ReadCloser, error) {
	return nil, errors.New("should not be opened")
}

func TestNewProductDefaults(t *testing.T) {
	d := NewProduct(nil)
	if d.Editing() {
		t.Error("expected create draft")
	}
	if got := d.Get("state"); got != model.ProductStateAvailable {
		t.Errorf("expected default state %q, got %q", model.ProductStateAvailable, got)
	}

	d.Set("description", "Monitor")
	p, err := d.Payload(failingOpener)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if _, ok := p.Get("quantity"); ok {
		t.Error("expected empty quantity to be left out")
	}
	if v, _ := p.Get("description"); v != "Monitor" {
		t.Errorf("expected description, got %q", v)
	}
	if p.File != nil {
		t.Error("expected no file part without a picked file")
	}
}

func TestEditProductResetsFileAndKeepsScalars(t *testing.T) {
	prod := &model.Product{ID: 4, Description: "Laptop", Quantity: 0, Price: 12.5, File1: "products/4.jpg"}
	d := NewProduct(prod)

	if !d.Editing() || d.RecordID() != 4 {
		t.Fatalf("expected edit draft for 4, got %d", d.RecordID())
	}
	if d.Attachment.Kind != AttachmentNone {
		t.Errorf("expected attachment reset, got %+v", d.Attachment)
	}

	p, err := d.Payload(failingOpener)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if v, ok := p.Get("quantity"); !ok || v != "0" {
		t.Errorf("expected quantity 0 to be sent, got %q (%v)", v, ok)
	}
	if v, _ := p.Get("price"); v != "12.5" {
		t.Errorf("expected price 12.5, got %q", v)
	}
	if p.File != nil {
		t.Error("expected no file part on unmodified edit")
	}
}

func TestRemotePhotoIsNotReuploaded(t *testing.T) {
	d := NewUser(&model.User{ID: 9, Names: "Ana", Email: "ana@example.com", Photo: "users/9.jpg"})
	if d.Attachment.Kind != AttachmentRemote {
		t.Fatalf("expected remote attachment, got %+v", d.Attachment)
	}

	p, err := d.Payload(failingOpener)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if p.File != nil {
		t.Error("expected no photo part for an unmodified remote photo")
	}
	if p.Multipart().HasFile() {
		t.Error("expected multipart body without file parts")
	}
	if _, ok := p.Get("password"); ok {
		t.Error("expected empty password to be left out")
	}
}

func TestPickedFileIsPreparedAndRenamed(t *testing.T) {
	d := NewUser(nil)
	d.Set("names", "Ana")
	d.Set("email", "ana@example.com")
	d.Pick("/tmp/IMG_0001.png")

	p, err := d.Payload(pngOpener(t, 2048, 1024))
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if p.File == nil {
		t.Fatal("expected photo part")
	}
	if p.File.Field != PhotoField || p.File.Filename != PhotoFilename || p.File.ContentType != "image/jpeg" {
		t.Errorf("unexpected part header: %s %s %s", p.File.Field, p.File.Filename, p.File.ContentType)
	}

	img, err := jpeg.Decode(bytes.NewReader(p.File.Data))
	if err != nil {
		t.Fatalf("expected JPEG data: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1024 || b.Dy() != 512 {
		t.Errorf("expected 1024x512, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestProductAndTransferFilenames(t *testing.T) {
	open := pngOpener(t, 10, 10)

	prod := NewProduct(nil)
	prod.Set("description", "Silla")
	prod.Pick("a.png")
	p, err := prod.Payload(open)
	if err != nil {
		t.Fatalf("product Payload: %v", err)
	}
	if p.File.Field != FileField || p.File.Filename != ProductFilename {
		t.Errorf("unexpected product part: %s %s", p.File.Field, p.File.Filename)
	}

	tr := NewTransfer(nil)
	tr.Set("description", "Entrega")
	tr.Pick("b.png")
	p, err = tr.Payload(open)
	if err != nil {
		t.Fatalf("transfer Payload: %v", err)
	}
	if p.File.Field != FileField || p.File.Filename != FileFilename {
		t.Errorf("unexpected transfer part: %s %s", p.File.Field, p.File.Filename)
	}
}

func TestArticleDraftCarriesTransfer(t *testing.T) {
	d := NewArticle(12, nil)
	d.Set("title", "Cable HDMI")
	p, err := d.Payload(nil)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if v, _ := p.Get("transfer_id"); v != "12" {
		t.Errorf("expected transfer_id 12, got %q", v)
	}
	if _, ok := p.Get("product_id"); ok {
		t.Error("expected no product_id when unset")
	}

	pid := int64(3)
	d = NewArticle(12, &model.Article{ID: 5, TransferID: 12, ProductID: &pid, Title: "Cable", Quanty: 2})
	p, _ = d.Payload(nil)
	if v, _ := p.Get("product_id"); v != "3" {
		t.Errorf("expected product_id 3, got %q", v)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   func() *Draft
		wantErr bool
	}{
		{"product without description", func() *Draft { return NewProduct(nil) }, true},
		{"product ok", func() *Draft {
			d := NewProduct(nil)
			d.Set("description", "Mesa")
			d.Set("quantity", "3")
			d.Set("price", "10.50")
			return d
		}, false},
		{"negative price", func() *Draft {
			d := NewProduct(nil)
			d.Set("description", "Mesa")
			d.Set("price", "-1")
			return d
		}, true},
		{"bad quantity", func() *Draft {
			d := NewProduct(nil)
			d.Set("description", "Mesa")
			d.Set("quantity", "tres")
			return d
		}, true},
		{"user bad email", func() *Draft {
			d := NewUser(nil)
			d.Set("names", "Ana")
			d.Set("email", "not-an-email")
			d.Set("password", "secreto")
			return d
		}, true},
		{"new user needs password", func() *Draft {
			d := NewUser(nil)
			d.Set("names", "Ana")
			d.Set("email", "ana@example.com")
			return d
		}, true},
		{"edited user keeps password", func() *Draft {
			return NewUser(&model.User{ID: 1, Names: "Ana", Email: "ana@example.com"})
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft().Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSupportDraftDefaultsAndDetails(t *testing.T) {
	d := NewSupport(nil)
	if d.Detail.Priority != model.PriorityNormal || d.Detail.Type != model.DetailTypeQuery || d.Detail.Status != model.DetailStatusPending {
		t.Errorf("unexpected defaults: %+v", d.Detail)
	}
	if err := d.Validate(); err == nil {
		t.Error("expected missing client and subject to fail validation")
	}

	client := int64(8)
	d.ClientID = &client
	d.Cellphone = "999888777"
	d.Detail.Subject = "Fuga de agua"
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	p, err := d.Payload(nil)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if v, _ := p.Get("client_id"); v != "8" {
		t.Errorf("expected client_id 8, got %q", v)
	}
	raw, ok := p.Get("details")
	if !ok {
		t.Fatal("expected details field")
	}
	var details []model.SupportDetail
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		t.Fatalf("details is not JSON: %v", err)
	}
	if len(details) != 1 || details[0].Subject != "Fuga de agua" {
		t.Errorf("unexpected details: %+v", details)
	}
}

func TestSupportDraftEditStartsFromLatestDetail(t *testing.T) {
	s := &model.Support{
		ID:       3,
		ClientID: 8,
		Details: []model.SupportDetail{
			{ID: 1, Subject: "old", Priority: "Normal", Type: "Consulta", Status: "Pendiente"},
			{ID: 2, Subject: "new", Priority: "Alta", Type: "Reclamo", Status: "Atendido"},
		},
	}
	d := NewSupport(s)
	if d.RecordID() != 3 || d.ClientID == nil || *d.ClientID != 8 {
		t.Errorf("unexpected ticket fields: %+v", d)
	}
	if d.Detail.Subject != "new" || d.Detail.ID != 0 {
		t.Errorf("expected latest detail without id, got %+v", d.Detail)
	}
}

type fakeSaver struct {
	created, updated int
	lastID           int64
	err              error
}

func (f *fakeSaver) Create(_ context.Context, p Payload) (model.Product, error) {
	f.created++
	desc, _ := p.Get("description")
	return model.Product{ID: 100, Description: desc}, f.err
}

func (f *fakeSaver) Update(_ context.Context, id int64, p Payload) (model.Product, error) {
	f.updated++
	f.lastID = id
	desc, _ := p.Get("description")
	return model.Product{ID: id, Description: desc}, f.err
}

func TestSubmitCreatesOrUpdates(t *testing.T) {
	ctx := context.Background()
	saver := &fakeSaver{}

	d := NewProduct(nil)
	d.Set("description", "Nuevo")
	rec, created, err := Submit[model.Product](ctx, saver, d, nil)
	if err != nil || !created || rec.ID != 100 {
		t.Fatalf("expected create, got %+v created=%v err=%v", rec, created, err)
	}

	d = NewProduct(&model.Product{ID: 7, Description: "Viejo"})
	d.Set("description", "Editado")
	rec, created, err = Submit[model.Product](ctx, saver, d, nil)
	if err != nil || created || saver.lastID != 7 || rec.Description != "Editado" {
		t.Fatalf("expected update of 7, got %+v created=%v err=%v", rec, created, err)
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	saver := &fakeSaver{err: errors.New("boom")}
	d := NewProduct(nil)
	d.Set("description", "Nuevo")

	if _, _, err := Submit[model.Product](context.Background(), saver, d, nil); err == nil {
		t.Fatal("expected error")
	}
	if d.Get("description") != "Nuevo" {
		t.Error("expected draft to be left intact")
	}

	invalid := NewProduct(nil)
	if _, _, err := Submit[model.Product](context.Background(), saver, invalid, nil); err == nil {
		t.Fatal("expected validation error")
	}
	if saver.created != 1 {
		t.Errorf("expected invalid draft not to reach the saver, got %d creates", saver.created)
	}
}

func TestSupportDraftSetAndGet(t *testing.T) {
	d := NewSupport(nil)
	for name, value := range map[string]string{
		"client_id":  "4",
		"subject":    "Sin luz",
		"priority":   model.PriorityUrgent,
		"area_id":    "2",
		"project_id": " 7 ",
	} {
		if err := d.Set(name, value); err != nil {
			t.Fatalf("Set(%s): %v", name, err)
		}
	}
	if d.ClientID == nil || *d.ClientID != 4 || d.Detail.AreaID == nil || *d.Detail.AreaID != 2 {
		t.Errorf("ids not stored: %+v", d)
	}
	if got := d.Get("project_id"); got != "7" {
		t.Errorf("project_id = %q", got)
	}
	if got := d.Get("priority"); got != model.PriorityUrgent {
		t.Errorf("priority = %q", got)
	}

	if err := d.Set("area_id", ""); err != nil || d.Detail.AreaID != nil {
		t.Errorf("expected empty id to clear, got %v %v", err, d.Detail.AreaID)
	}
	if err := d.Set("area_id", "dos"); err == nil {
		t.Error("expected non-numeric id to fail")
	}
	if err := d.Set("colour", "red"); err == nil {
		t.Error("expected unknown field to fail")
	}
	for _, name := range SupportFields {
		if err := d.Set(name, d.Get(name)); err != nil {
			t.Errorf("round trip of %s: %v", name, err)
		}
	}
}
