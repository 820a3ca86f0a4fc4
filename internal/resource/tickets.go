package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/model"
	"golang.org/x/sync/errgroup"
)

// MinQueryLength is the shortest trimmed query sent to a search endpoint.
const MinQueryLength = 2

// Tickets adds search and lookup endpoints to the support collection.
type Tickets struct {
	*Service[model.Support]
	api *client.Client
}

// NewTickets returns the support collection with its extras.
func NewTickets(api *client.Client) *Tickets {
	return &Tickets{Service: Supports(api), api: api}
}

// Search finds tickets matching q. Short queries return nil without a call.
func (t *Tickets) Search(ctx context.Context, q string) ([]model.Support, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinQueryLength {
		return nil, nil
	}

	var resp struct {
		Supports struct {
			Data []model.Support `json:"data"`
		} `json:"supports"`
	}
	if err := t.api.Get(ctx, "/supports/search?q="+url.QueryEscape(q), &resp); err != nil {
		return nil, fmt.Errorf("searching supports: %w", err)
	}

	if len(resp.Supports.Data) == 0 {
		slog.Debug("support search found nothing", "query", q)
	}
	return resp.Supports.Data, nil
}

// SearchClients finds clients matching q, with the same short-query rule.
func (t *Tickets) SearchClients(ctx context.Context, q string) ([]model.Client, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinQueryLength {
		return nil, nil
	}

	var clients []model.Client
	if err := t.api.Get(ctx, "/clients/search?q="+url.QueryEscape(q), &clients); err != nil {
		return nil, fmt.Errorf("searching clients: %w", err)
	}
	return clients, nil
}

// Options holds every dropdown list offered by the ticket form.
type Options struct {
	Areas            []model.Option
	Clients          []model.Option
	Projects         []model.Option
	Motives          []model.Option
	AppointmentTypes []model.Option
	WaitDays         []model.Option
	InternalStates   []model.Option
	ExternalStates   []model.Option
	Types            []model.Option
}

type lookup struct {
	path    string
	idKey   string
	nameKey string
	dst     *[]model.Option
}

// FetchOptions loads all lookup lists concurrently. If any of them fails
// the whole call fails and no partial result is returned.
func (t *Tickets) FetchOptions(ctx context.Context) (*Options, error) {
	var opts Options
	lookups := []lookup{
		{"/areas", "id_area", "descripcion", &opts.Areas},
		{"/clients", "id_cliente", "Razon_Social", &opts.Clients},
		{"/projects", "id_proyecto", "descripcion", &opts.Projects},
		{"/motivos-cita", "id_motivos_cita", "descripcion", &opts.Motives},
		{"/tipos-cita", "id_tipo_cita", "descripcion", &opts.AppointmentTypes},
		{"/dias-espera", "id_dias_espera", "descripcion", &opts.WaitDays},
		{"/internal-states", "id", "description", &opts.InternalStates},
		{"/external-states", "id", "description", &opts.ExternalStates},
		{"/types", "id", "name", &opts.Types},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range lookups {
		g.Go(func() error {
			list, err := t.fetchLookup(gctx, l)
			if err != nil {
				return err
			}
			*l.dst = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &opts, nil
}

func (t *Tickets) fetchLookup(ctx context.Context, l lookup) ([]model.Option, error) {
	var raw json.RawMessage
	if err := t.api.Get(ctx, l.path, &raw); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", l.path, err)
	}

	rows, err := lookupRows(raw)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", l.path, err)
	}

	out := make([]model.Option, 0, len(rows))
	for _, row := range rows {
		var opt model.Option
		v, ok := row[l.idKey]
		if !ok {
			return nil, fmt.Errorf("fetching %s: %w: missing %s", l.path, ErrUnexpectedShape, l.idKey)
		}
		if err := json.Unmarshal(v, &opt.ID); err != nil {
			return nil, fmt.Errorf("fetching %s: %w: bad %s", l.path, ErrUnexpectedShape, l.idKey)
		}
		// A null name decodes to "".
		if v, ok := row[l.nameKey]; ok {
			if err := json.Unmarshal(v, &opt.Name); err != nil {
				return nil, fmt.Errorf("fetching %s: %w: bad %s", l.path, ErrUnexpectedShape, l.nameKey)
			}
		}
		out = append(out, opt)
	}
	return out, nil
}

// lookupRows accepts either {"data": [...]} or a bare array.
func lookupRows(raw json.RawMessage) ([]map[string]json.RawMessage, error) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		raw = env.Data
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: expected an array", ErrUnexpectedShape)
	}

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: expected an array", ErrUnexpectedShape)
	}
	return rows, nil
}
