package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/erazemk/soporte/internal/model"
)

// SupportDraft edits a ticket together with the attention detail being
// recorded on it.
type SupportDraft struct {
	ID           int64
	ClientID     *int64 `validate:"required"`
	Cellphone    string `validate:"omitempty,max=20"`
	StatusGlobal string
	Detail       model.SupportDetail
}

// NewSupport returns a draft for s, or a create draft with the default
// priority, type and status when s is nil. Editing starts from the
// ticket's latest detail.
func NewSupport(s *model.Support) *SupportDraft {
	d := &SupportDraft{
		Detail: model.SupportDetail{
			Priority: model.PriorityNormal,
			Type:     model.DetailTypeQuery,
			Status:   model.DetailStatusPending,
		},
	}
	if s == nil {
		return d
	}

	d.ID = s.ID
	if s.ClientID != 0 {
		id := s.ClientID
		d.ClientID = &id
	}
	d.Cellphone = s.Cellphone
	d.StatusGlobal = s.StatusGlobal
	if latest, ok := s.Latest(); ok {
		d.Detail = latest
		d.Detail.ID = 0
		d.Detail.SupportID = 0
	}
	return d
}

// RecordID implements Submittable.
func (d *SupportDraft) RecordID() int64 {
	return d.ID
}

// Validate checks the ticket and its detail.
func (d *SupportDraft) Validate() error {
	var errs []error
	if err := validate.Struct(d); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(d.Detail.Subject) == "" {
		errs = append(errs, errors.New("subject: failed \"required\""))
	}
	if err := validate.Var(d.Detail.Priority, "oneof=Normal Alta Urgente"); err != nil {
		errs = append(errs, fieldError("priority", err))
	}
	if err := validate.Var(d.Detail.Type, "oneof=Consulta Reclamo Sugerencia"); err != nil {
		errs = append(errs, fieldError("type", err))
	}
	if err := validate.Var(d.Detail.Status, "oneof=Pendiente Atendido Cerrado"); err != nil {
		errs = append(errs, fieldError("status", err))
	}
	return errors.Join(errs...)
}

// Payload serializes the ticket fields and nests the detail as a
// JSON-encoded array of one element. Tickets carry no file.
func (d *SupportDraft) Payload(Opener) (Payload, error) {
	var p Payload
	if d.ClientID != nil {
		p.Fields = append(p.Fields, Field{Name: "client_id", Value: strconv.FormatInt(*d.ClientID, 10)})
	}
	if d.Cellphone != "" {
		p.Fields = append(p.Fields, Field{Name: "cellphone", Value: d.Cellphone})
	}
	if d.StatusGlobal != "" {
		p.Fields = append(p.Fields, Field{Name: "status_global", Value: d.StatusGlobal})
	}

	details, err := json.Marshal([]model.SupportDetail{d.Detail})
	if err != nil {
		return Payload{}, fmt.Errorf("encoding details: %w", err)
	}
	p.Fields = append(p.Fields, Field{Name: "details", Value: string(details)})
	return p, nil
}

// SupportFields names the editable ticket fields in dialog order. Detail
// fields use their wire names.
var SupportFields = []string{
	"client_id", "cellphone", "status_global",
	"subject", "description", "priority", "type", "status",
	"reservation_time", "derived",
	"project_id", "area_id", "id_motivos_cita", "id_tipo_cita",
	"id_dia_espera", "internal_state_id", "external_state_id", "type_id",
}

func (d *SupportDraft) lookupIDs() map[string]**int64 {
	det := &d.Detail
	return map[string]**int64{
		"project_id":        &det.ProjectID,
		"area_id":           &det.AreaID,
		"id_motivos_cita":   &det.MotiveID,
		"id_tipo_cita":      &det.AppointmentTypeID,
		"id_dia_espera":     &det.WaitDayID,
		"internal_state_id": &det.InternalStateID,
		"external_state_id": &det.ExternalStateID,
		"type_id":           &det.TypeID,
	}
}

func (d *SupportDraft) texts() map[string]*string {
	det := &d.Detail
	return map[string]*string{
		"cellphone":        &d.Cellphone,
		"status_global":    &d.StatusGlobal,
		"subject":          &det.Subject,
		"description":      &det.Description,
		"priority":         &det.Priority,
		"type":             &det.Type,
		"status":           &det.Status,
		"reservation_time": &det.ReservationTime,
		"derived":          &det.Derived,
	}
}

// Set assigns a field by name. Ids are decimal; an empty lookup id clears
// it.
func (d *SupportDraft) Set(name, value string) error {
	if name == "client_id" {
		return setID(&d.ClientID, name, value)
	}
	if dst, ok := d.texts()[name]; ok {
		*dst = value
		return nil
	}
	if dst, ok := d.lookupIDs()[name]; ok {
		return setID(dst, name, value)
	}
	return fmt.Errorf("unknown field %q", name)
}

// Get returns a field by name, or "" for unset ids and unknown names.
func (d *SupportDraft) Get(name string) string {
	if name == "client_id" {
		return idString(d.ClientID)
	}
	if src, ok := d.texts()[name]; ok {
		return *src
	}
	if src, ok := d.lookupIDs()[name]; ok {
		return idString(*src)
	}
	return ""
}

func setID(dst **int64, name, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		*dst = nil
		return nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = &id
	return nil
}

func idString(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
