package model

import "time"

// Product is an asset held in the back office.
type Product struct {
	ID           int64      `json:"id"`
	Code         string     `json:"code,omitempty"`
	SKU          string     `json:"sku,omitempty"`
	Description  string     `json:"description"`
	Detail       string     `json:"detail,omitempty"`
	Brand        string     `json:"brand,omitempty"`
	Model        string     `json:"model,omitempty"`
	SerialNumber string     `json:"serial_number,omitempty"`
	Condition    string     `json:"condition,omitempty"`
	State        string     `json:"state,omitempty"`
	Quantity     int        `json:"quantity,omitempty"`
	Price        Amount     `json:"price,omitempty"`
	Location     string     `json:"location,omitempty"`
	File1        string     `json:"file_1,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Identifier implements Record.
func (p Product) Identifier() int64 { return p.ID }

// Product states.
const (
	ProductStateAvailable = "Disponible"
	ProductStateAssigned  = "Asignado"
	ProductStateDamaged   = "Dañado"
)

// ProductStates lists the states offered when editing a product.
var ProductStates = []string{ProductStateAvailable, ProductStateAssigned, ProductStateDamaged}
