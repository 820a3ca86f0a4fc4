package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/form"
	"github.com/erazemk/soporte/internal/model"
	"github.com/erazemk/soporte/internal/resource"
	"github.com/erazemk/soporte/internal/search"
)

// savedMsg reports the outcome of a dialog submit on screen id.
type savedMsg struct {
	id  string
	err error
}

// choicesMsg carries the options of a dialog's select fields.
type choicesMsg struct {
	id      string
	choices map[string][]choice
	err     error
}

// clientsMsg carries a debounced client search result.
type clientsMsg struct {
	result search.Result[model.Client]
}

type choice struct {
	value, label string
}

func stringChoices(values []string) []choice {
	out := make([]choice, len(values))
	for i, v := range values {
		out[i] = choice{value: v, label: v}
	}
	return out
}

func optionChoices(opts []model.Option) []choice {
	out := make([]choice, len(opts))
	for i, o := range opts {
		label := o.Name
		if label == "" {
			label = "#" + itoa(o.ID)
		}
		out[i] = choice{value: itoa(o.ID), label: label}
	}
	return out
}

func clientChoices(clients []model.Client) []choice {
	out := make([]choice, len(clients))
	for i, c := range clients {
		label := c.Names
		if label == "" {
			label = c.BusinessName
		}
		if c.DNI != "" {
			label += " · " + c.DNI
		}
		out[i] = choice{value: itoa(c.ID), label: label}
	}
	return out
}

// ticketChoices maps the ticket lookups onto the dialog fields they fill.
func ticketChoices(o *resource.Options) map[string][]choice {
	return map[string][]choice{
		"client_id":         optionChoices(o.Clients),
		"project_id":        optionChoices(o.Projects),
		"area_id":           optionChoices(o.Areas),
		"id_motivos_cita":   optionChoices(o.Motives),
		"id_tipo_cita":      optionChoices(o.AppointmentTypes),
		"id_dia_espera":     optionChoices(o.WaitDays),
		"internal_state_id": optionChoices(o.InternalStates),
		"external_state_id": optionChoices(o.ExternalStates),
		"type_id":           optionChoices(o.Types),
	}
}

type fieldKind int

const (
	textField fieldKind = iota
	selectField
	// clientField is a select whose choices come from a type-ahead search.
	clientField
)

type fieldSpec struct {
	name    string
	kind    fieldKind
	choices []choice
	secret  bool
}

// formDraft is the record behind an edit dialog.
type formDraft interface {
	form.Submittable
	specs() []fieldSpec
	get(name string) string
	set(name, value string) error
}

// recordDraft adapts the flat drafts. A draft with an attachment gains a
// "file" field holding the path of the image to upload.
type recordDraft struct {
	*form.Draft
	selects map[string][]choice
}

func (d recordDraft) specs() []fieldSpec {
	var out []fieldSpec
	for _, f := range d.Fields() {
		// Articles stay on the transfer they were opened from.
		if f.Name == "transfer_id" {
			continue
		}
		spec := fieldSpec{name: f.Name, secret: f.Name == "password"}
		if cs, ok := d.selects[f.Name]; ok {
			spec.kind = selectField
			spec.choices = cs
		}
		out = append(out, spec)
	}
	if d.AttachmentField != "" {
		out = append(out, fieldSpec{name: "file"})
	}
	return out
}

func (d recordDraft) get(name string) string {
	if name == "file" {
		return ""
	}
	return d.Get(name)
}

func (d recordDraft) set(name, value string) error {
	if name == "file" {
		if path := strings.TrimSpace(value); path != "" {
			d.Pick(path)
		}
		return nil
	}
	d.Set(name, value)
	return nil
}

type ticketDraft struct {
	*form.SupportDraft
}

func (d ticketDraft) specs() []fieldSpec {
	out := make([]fieldSpec, 0, len(form.SupportFields))
	for _, name := range form.SupportFields {
		spec := fieldSpec{name: name}
		switch name {
		case "client_id":
			spec.kind = clientField
		case "priority":
			spec.kind, spec.choices = selectField, stringChoices(model.Priorities)
		case "type":
			spec.kind, spec.choices = selectField, stringChoices(model.DetailTypes)
		case "status":
			spec.kind, spec.choices = selectField, stringChoices(model.DetailStatuses)
		case "project_id", "area_id", "id_motivos_cita", "id_tipo_cita",
			"id_dia_espera", "internal_state_id", "external_state_id", "type_id":
			spec.kind = selectField
		}
		out = append(out, spec)
	}
	return out
}

func (d ticketDraft) get(name string) string        { return d.Get(name) }
func (d ticketDraft) set(name, value string) error { return d.Set(name, value) }

type dialogField struct {
	name    string
	kind    fieldKind
	input   textinput.Model
	choices []choice
	// pick indexes choices; -1 selects nothing.
	pick int
}

func (f *dialogField) value() string {
	if f.kind == textField {
		return f.input.Value()
	}
	if f.pick >= 0 && f.pick < len(f.choices) {
		return f.choices[f.pick].value
	}
	return ""
}

// setChoices replaces the options and keeps the current value selected.
// A value missing from cs stays available under its raw id.
func (f *dialogField) setChoices(cs []choice) {
	cur := f.value()
	f.choices = cs
	f.pick = -1
	for i, c := range cs {
		if c.value == cur {
			f.pick = i
			return
		}
	}
	if cur != "" {
		f.choices = append([]choice{{value: cur, label: "#" + cur}}, cs...)
		f.pick = 0
	}
}

// step moves the selection by delta, passing through "nothing selected".
func (f *dialogField) step(delta int) {
	n := len(f.choices) + 1
	f.pick = ((f.pick+1+delta)%n+n)%n - 1
}

// editForm is the create/edit dialog laid over a list screen.
type editForm struct {
	title  string
	draft  formDraft
	fields []dialogField
	focus  int
	busy   bool
	err    string
	// clients feeds the client field. Nil when the dialog has none.
	clients *search.Debouncer[model.Client]
}

func newEditForm(title string, d formDraft) *editForm {
	f := &editForm{title: title, draft: d}
	for _, spec := range d.specs() {
		df := dialogField{name: spec.name, kind: spec.kind, pick: -1}
		current := d.get(spec.name)
		if spec.kind == textField || spec.kind == clientField {
			df.input = newInput(spec.name)
			if spec.secret {
				df.input.EchoMode = textinput.EchoPassword
				df.input.EchoCharacter = '•'
			}
		}
		if spec.kind == textField {
			df.input.SetValue(current)
		} else {
			if current != "" {
				df.choices = []choice{{value: current, label: "#" + current}}
				df.pick = 0
			}
			df.setChoices(spec.choices)
		}
		f.fields = append(f.fields, df)
	}
	return f
}

func (f *editForm) field(name string) *dialogField {
	for i := range f.fields {
		if f.fields[i].name == name {
			return &f.fields[i]
		}
	}
	return nil
}

func (f *editForm) focusField(i int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.focus = (i%len(f.fields) + len(f.fields)) % len(f.fields)
	var cmd tea.Cmd
	for j := range f.fields {
		in := &f.fields[j].input
		if f.fields[j].kind == selectField {
			continue
		}
		if j == f.focus {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

func (f *editForm) setChoices(choices map[string][]choice) {
	for name, cs := range choices {
		fld := f.field(name)
		if fld == nil {
			continue
		}
		// Search matches win over the full client list.
		if fld.kind == clientField && strings.TrimSpace(fld.input.Value()) != "" {
			continue
		}
		fld.setChoices(cs)
	}
}

// clientResult shows the matches for the query still in the client field.
func (f *editForm) clientResult(r search.Result[model.Client]) tea.Cmd {
	fld := f.field("client_id")
	if fld == nil || r.Query != strings.TrimSpace(fld.input.Value()) {
		return nil
	}
	if r.Err != nil {
		return alertCmd(r.Err)
	}
	if len([]rune(r.Query)) < search.MinLength {
		return nil
	}
	cur := fld.value()
	fld.choices = clientChoices(r.Items)
	fld.pick = -1
	for i, c := range fld.choices {
		if c.value == cur {
			fld.pick = i
		}
	}
	if fld.pick < 0 && len(fld.choices) > 0 {
		fld.pick = 0
	}
	return nil
}

// apply copies the dialog values into the draft.
func (f *editForm) apply() error {
	var errs []error
	for i := range f.fields {
		if err := f.draft.set(f.fields[i].name, f.fields[i].value()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *editForm) close() {
	if f.clients != nil {
		f.clients.Stop()
	}
}

// update handles a key and reports whether the user asked to submit or to
// cancel.
func (f *editForm) update(key tea.KeyMsg) (submit, cancel bool, cmd tea.Cmd) {
	if f.busy {
		return false, false, nil
	}
	switch key.String() {
	case "esc":
		return false, true, nil
	case "enter":
		return true, false, nil
	case "tab":
		return false, false, f.focusField(f.focus + 1)
	case "shift+tab":
		return false, false, f.focusField(f.focus - 1)
	}
	if len(f.fields) == 0 {
		return false, false, nil
	}

	fld := &f.fields[f.focus]
	switch key.String() {
	case "up", "down":
		if fld.kind == textField {
			if key.String() == "up" {
				return false, false, f.focusField(f.focus - 1)
			}
			return false, false, f.focusField(f.focus + 1)
		}
		if key.String() == "up" {
			fld.step(-1)
		} else {
			fld.step(1)
		}
		return false, false, nil
	case "left", "right":
		if fld.kind == selectField {
			if key.String() == "left" {
				fld.step(-1)
			} else {
				fld.step(1)
			}
			return false, false, nil
		}
	}
	if fld.kind == selectField {
		return false, false, nil
	}

	before := fld.input.Value()
	fld.input, cmd = fld.input.Update(key)
	if fld.kind == clientField && f.clients != nil && fld.input.Value() != before {
		f.clients.Type(strings.TrimSpace(fld.input.Value()))
	}
	return false, false, cmd
}

func (f *editForm) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title) + "\n\n")
	for i, fld := range f.fields {
		marker := "  "
		if i == f.focus {
			marker = "> "
		}
		label := faintStyle.Render(lipgloss.NewStyle().Width(18).Render(fld.name))
		b.WriteString(marker + label + " " + fld.render() + "\n")
	}
	if f.busy {
		b.WriteString("\n" + faintStyle.Render("Guardando…"))
	}
	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render(f.err))
	}
	b.WriteString("\n" + footerStyle.Render("tab campo · ↑/↓ opción · enter guardar · esc cancelar"))
	return b.String()
}

func (f dialogField) render() string {
	selected := "(ninguno)"
	if len(f.choices) == 0 && f.kind == selectField {
		selected = "(sin opciones)"
	}
	if f.pick >= 0 && f.pick < len(f.choices) {
		selected = "‹ " + f.choices[f.pick].label + " ›"
	}
	switch f.kind {
	case selectField:
		return selected
	case clientField:
		return f.input.View() + " " + faintStyle.Render(selected)
	}
	return f.input.View()
}

// formMessage is the text shown inside a dialog for a failed submit.
// Server and connection errors use their user message; local validation
// errors name the failing fields.
func formMessage(err error) string {
	var apiErr *client.Error
	if errors.As(err, &apiErr) || errors.Is(err, client.ErrNoConnection) {
		return client.UserMessage(err)
	}
	return err.Error()
}
