package form

import (
	"strconv"

	"github.com/erazemk/soporte/internal/model"
)

// Upload part names and the synthetic filenames they are sent with.
const (
	ProductFilename = "producto.jpg"
	FileFilename    = "archivo.jpg"
	PhotoFilename   = "photo.jpg"
	FileField       = "file_1"
	PhotoField      = "photo"
)

// NewProduct returns a draft for p, or a blank create draft when p is nil.
// Editing resets the stored file; only a newly picked file is uploaded.
func NewProduct(p *model.Product) *Draft {
	var src model.Product
	if p != nil {
		src = *p
	} else {
		src.State = model.ProductStateAvailable
	}

	d := newDraft(src.ID, FileField, ProductFilename)
	d.Set("description", src.Description)
	d.Set("brand", src.Brand)
	d.Set("model", src.Model)
	d.Set("serial_number", src.SerialNumber)
	d.Set("quantity", intField(src.Quantity, p != nil))
	d.Set("price", amountField(src.Price, p != nil))
	d.Set("state", src.State)
	d.Set("location", src.Location)

	d.rule("description", "required,max=255")
	d.rule("quantity", "omitempty,number")
	d.rule("price", "omitempty,numeric,excludes=-")
	d.rule("state", "omitempty,oneof=Disponible Asignado Dañado")
	return d
}

// NewUser returns a draft for u, or a blank create draft when u is nil.
// The password is never prefilled; the stored photo stays remote.
func NewUser(u *model.User) *Draft {
	var src model.User
	if u != nil {
		src = *u
	}

	d := newDraft(src.ID, PhotoField, PhotoFilename)
	d.Set("names", src.Names)
	d.Set("email", src.Email)
	d.Set("password", "")
	d.Set("role", src.Role)
	d.Set("dni", src.DNI)
	d.Set("cellphone", src.Cellphone)
	d.Set("sex", src.Sex)
	d.Set("datebirth", src.Datebirth)
	d.Attachment = Remote(src.Photo)

	d.rule("names", "required")
	d.rule("email", "required,email")
	if u == nil {
		d.rule("password", "required,min=6")
	} else {
		d.rule("password", "omitempty,min=6")
	}
	d.rule("sex", "omitempty,oneof=M F")
	d.rule("datebirth", "omitempty,datetime=2006-01-02")
	return d
}

// NewTransfer returns a draft for t, or a blank create draft when t is nil.
func NewTransfer(t *model.Transfer) *Draft {
	var src model.Transfer
	if t != nil {
		src = *t
	}

	d := newDraft(src.ID, FileField, FileFilename)
	d.Set("description", src.Description)
	d.Set("details", src.Details)
	d.Set("sender_firstname", src.SenderFirstname)
	d.Set("sender_lastname", src.SenderLastname)
	d.Set("sender_email", src.SenderEmail)
	d.Set("receiver_firstname", src.ReceiverFirstname)
	d.Set("receiver_lastname", src.ReceiverLastname)
	d.Set("receiver_email", src.ReceiverEmail)

	d.rule("description", "required")
	d.rule("sender_email", "omitempty,email")
	d.rule("receiver_email", "omitempty,email")
	return d
}

// NewArticle returns a draft for a line of transferID. A nil article starts
// a create draft.
func NewArticle(transferID int64, a *model.Article) *Draft {
	var src model.Article
	if a != nil {
		src = *a
	}

	d := newDraft(src.ID, FileField, FileFilename)
	d.Set("title", src.Title)
	d.Set("description", src.Description)
	d.Set("quanty", intField(src.Quanty, a != nil))
	d.Set("price", amountField(src.Price, a != nil))
	d.Set("state", src.State)
	d.Set("transfer_id", strconv.FormatInt(transferID, 10))
	if src.ProductID != nil {
		d.Set("product_id", strconv.FormatInt(*src.ProductID, 10))
	} else {
		d.Set("product_id", "")
	}

	d.rule("title", "required")
	d.rule("quanty", "omitempty,number")
	d.rule("price", "omitempty,numeric,excludes=-")
	d.rule("transfer_id", "required,number")
	d.rule("product_id", "omitempty,number")
	return d
}

// intField renders a stored number. Create drafts start empty so the field
// is left out unless the user fills it in.
func intField(v int, existing bool) string {
	if !existing {
		return ""
	}
	return strconv.Itoa(v)
}

func amountField(v model.Amount, existing bool) string {
	if !existing {
		return ""
	}
	return v.String()
}
