package model

import "time"

// Client is a customer that raises support tickets.
type Client struct {
	ID           int64  `json:"id"`
	DNI          string `json:"dni,omitempty"`
	Names        string `json:"names,omitempty"`
	Cellphone    string `json:"cellphone,omitempty"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
	BusinessName string `json:"Razon_Social,omitempty"`
}

// Identifier implements Record.
func (c Client) Identifier() int64 { return c.ID }

// Support is a customer-service ticket with one or more attention details.
type Support struct {
	ID           int64           `json:"id"`
	ClientID     int64           `json:"client_id"`
	CreatedBy    *int64          `json:"created_by,omitempty"`
	Cellphone    string          `json:"cellphone"`
	State        string          `json:"state,omitempty"`
	StatusGlobal string          `json:"status_global,omitempty"`
	Client       *Client         `json:"client,omitempty"`
	Details      []SupportDetail `json:"details,omitempty"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

// Identifier implements Record.
func (s Support) Identifier() int64 { return s.ID }

// Latest returns the most recent attention detail, if any.
func (s Support) Latest() (SupportDetail, bool) {
	if len(s.Details) == 0 {
		return SupportDetail{}, false
	}
	return s.Details[len(s.Details)-1], true
}

// SupportDetail is one attention record on a ticket.
type SupportDetail struct {
	ID              int64  `json:"id,omitempty"`
	SupportID       int64  `json:"support_id,omitempty"`
	Subject         string `json:"subject"`
	Description     string `json:"description,omitempty"`
	Priority        string `json:"priority"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	ReservationTime string `json:"reservation_time,omitempty"`
	AttendedAt      string `json:"attended_at,omitempty"`
	Derived         string `json:"derived,omitempty"`
	Manzana         string `json:"Manzana,omitempty"`
	Lote            string `json:"Lote,omitempty"`
	Attachment      string `json:"attachment,omitempty"`

	ProjectID         *int64 `json:"project_id,omitempty"`
	AreaID            *int64 `json:"area_id,omitempty"`
	MotiveID          *int64 `json:"id_motivos_cita,omitempty"`
	AppointmentTypeID *int64 `json:"id_tipo_cita,omitempty"`
	WaitDayID         *int64 `json:"id_dia_espera,omitempty"`
	InternalStateID   *int64 `json:"internal_state_id,omitempty"`
	ExternalStateID   *int64 `json:"external_state_id,omitempty"`
	TypeID            *int64 `json:"type_id,omitempty"`
}

// Detail priorities, types and statuses offered by the ticket form.
const (
	PriorityNormal = "Normal"
	PriorityHigh   = "Alta"
	PriorityUrgent = "Urgente"

	DetailTypeQuery      = "Consulta"
	DetailTypeComplaint  = "Reclamo"
	DetailTypeSuggestion = "Sugerencia"

	DetailStatusPending  = "Pendiente"
	DetailStatusAttended = "Atendido"
	DetailStatusClosed   = "Cerrado"
)

var (
	Priorities     = []string{PriorityNormal, PriorityHigh, PriorityUrgent}
	DetailTypes    = []string{DetailTypeQuery, DetailTypeComplaint, DetailTypeSuggestion}
	DetailStatuses = []string{DetailStatusPending, DetailStatusAttended, DetailStatusClosed}
)
