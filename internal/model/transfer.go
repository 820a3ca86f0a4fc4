package model

import "time"

// Transfer represents a hand-over of articles from a sender to a receiver.
type Transfer struct {
	ID                int64      `json:"id"`
	Description       string     `json:"description,omitempty"`
	Details           string     `json:"details,omitempty"`
	SenderFirstname   string     `json:"sender_firstname,omitempty"`
	SenderLastname    string     `json:"sender_lastname,omitempty"`
	SenderEmail       string     `json:"sender_email,omitempty"`
	ReceiverFirstname string     `json:"receiver_firstname,omitempty"`
	ReceiverLastname  string     `json:"receiver_lastname,omitempty"`
	ReceiverEmail     string     `json:"receiver_email,omitempty"`
	File1             string     `json:"file_1,omitempty"`
	ConfirmationToken string     `json:"confirmation_token,omitempty"`
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`
	ReceivedAt        *time.Time `json:"received_at,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// Identifier implements Record.
func (t Transfer) Identifier() int64 { return t.ID }

// SenderName returns the sender's full name.
func (t Transfer) SenderName() string {
	return joinName(t.SenderFirstname, t.SenderLastname)
}

// ReceiverName returns the receiver's full name.
func (t Transfer) ReceiverName() string {
	return joinName(t.ReceiverFirstname, t.ReceiverLastname)
}

// Article is a line of a transfer. It belongs to exactly one transfer and
// optionally references a product.
type Article struct {
	ID          int64      `json:"id"`
	TransferID  int64      `json:"transfer_id"`
	ProductID   *int64     `json:"product_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Details     string     `json:"details,omitempty"`
	Quanty      int        `json:"quanty"`
	Price       Amount     `json:"price,omitempty"`
	Code        string     `json:"code,omitempty"`
	Condition   string     `json:"condition,omitempty"`
	State       string     `json:"state,omitempty"`
	File1       string     `json:"file_1,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Identifier implements Record.
func (a Article) Identifier() int64 { return a.ID }

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
