package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/erazemk/soporte/internal/form"
	"github.com/erazemk/soporte/internal/listview"
	"github.com/erazemk/soporte/internal/model"
	"github.com/erazemk/soporte/internal/resource"
)

// ErrNotFound is returned when an id is not present in a collection.
var ErrNotFound = errors.New("record not found")

// editor is a form draft that can be filled from command-line pairs.
type editor interface {
	form.Submittable
	apply(name, value string) error
	pick(path string) error
}

type draftEditor struct {
	*form.Draft
}

func (d draftEditor) apply(name, value string) error {
	for _, f := range d.Fields() {
		if f.Name == name {
			d.Set(name, value)
			return nil
		}
	}
	return fmt.Errorf("unknown field %q", name)
}

func (d draftEditor) pick(path string) error {
	if d.AttachmentField == "" {
		return errors.New("this record takes no file")
	}
	d.Pick(path)
	return nil
}

// kind describes one collection for the generic record commands.
type kind[T model.Record] struct {
	use     string
	aliases []string
	short   string
	service func(e *env) (*resource.Service[T], error)
	// editor returns a create draft for nil, an edit draft otherwise.
	editor func(rec *T) editor
}

func recordCmd[T model.Record](e *env, k kind[T]) *cobra.Command {
	c := &cobra.Command{
		Use:     k.use,
		Aliases: k.aliases,
		Short:   k.short,
	}
	c.AddCommand(listCmd(e, k), allCmd(e, k), createCmd(e, k), updateCmd(e, k), deleteCmd(e, k))
	return c
}

func (k kind[T]) open(ctx context.Context, e *env) (*resource.Service[T], error) {
	if err := e.authed(ctx); err != nil {
		return nil, err
	}
	return k.service(e)
}

func listCmd[T model.Record](e *env, k kind[T]) *cobra.Command {
	var page int

	c := &cobra.Command{
		Use:   "list",
		Short: "Print one page",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := k.open(cmd.Context(), e)
			if err != nil {
				return err
			}
			p, err := svc.ListPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	c.Flags().IntVar(&page, "page", 1, "Page number")
	return c
}

// allCmd walks the collection the way the list screen does, page after
// page until the server reports the last one.
func allCmd[T model.Record](e *env, k kind[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Print every record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := k.open(ctx, e)
			if err != nil {
				return err
			}

			ctrl := listview.New[T](svc.Name(), svc, nil)
			if cache := e.pageCache(); cache != nil {
				ctrl.UseCache(cache)
			}
			if err := ctrl.Mount(ctx); err != nil {
				return err
			}

			w := cmd.ErrOrStderr()
			bar := progressbar.NewOptions(max(ctrl.Snapshot().LastPage, 1),
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetVisibility(stderrIsTerminal(w)),
				progressbar.OptionSetDescription("Cargando "+k.use),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			bar.Add(1)

			for ctrl.State() != listview.Exhausted {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := ctrl.LoadMore(ctx); err != nil {
					return err
				}
				bar.Add(1)
			}
			bar.Finish()

			return printJSON(cmd.OutOrStdout(), ctrl.Items())
		},
	}
}

func createCmd[T model.Record](e *env, k kind[T]) *cobra.Command {
	var sets []string
	var file string

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := k.open(ctx, e)
			if err != nil {
				return err
			}
			ed := k.editor(nil)
			if err := fill(ed, sets, file); err != nil {
				return err
			}
			rec, _, err := form.Submit[T](ctx, svc, ed, form.OpenFile)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	c.Flags().StringArrayVarP(&sets, "set", "s", nil, "Field value as name=value (repeatable)")
	c.Flags().StringVarP(&file, "file", "f", "", "Image to upload")
	return c
}

func updateCmd[T model.Record](e *env, k kind[T]) *cobra.Command {
	var sets []string
	var file string

	c := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := k.open(ctx, e)
			if err != nil {
				return err
			}

			rec, err := find(ctx, svc, id)
			if err != nil {
				return err
			}
			ed := k.editor(&rec)
			if err := fill(ed, sets, file); err != nil {
				return err
			}
			saved, _, err := form.Submit[T](ctx, svc, ed, form.OpenFile)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), saved)
		},
	}
	c.Flags().StringArrayVarP(&sets, "set", "s", nil, "Field value as name=value (repeatable)")
	c.Flags().StringVarP(&file, "file", "f", "", "Image to upload")
	return c
}

func deleteCmd[T model.Record](e *env, k kind[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := k.open(cmd.Context(), e)
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Eliminado %d\n", id)
			return nil
		},
	}
}

// find locates a record by walking the pages, since the backend has no
// single-record endpoint.
func find[T model.Record](ctx context.Context, svc *resource.Service[T], id int64) (T, error) {
	for page := 1; ; page++ {
		p, err := svc.ListPage(ctx, page)
		if err != nil {
			var zero T
			return zero, err
		}
		for _, rec := range p.Data {
			if rec.Identifier() == id {
				return rec, nil
			}
		}
		if !p.HasMore(page + 1) {
			var zero T
			return zero, fmt.Errorf("%s %d: %w", svc.Name(), id, ErrNotFound)
		}
	}
}

func fill(ed editor, sets []string, file string) error {
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid --set %q: want name=value", s)
		}
		if err := ed.apply(strings.TrimSpace(name), value); err != nil {
			return err
		}
	}
	if file != "" {
		return ed.pick(file)
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func usersCmd(e *env) *cobra.Command {
	return recordCmd(e, kind[model.User]{
		use:     "users",
		aliases: []string{"usuarios"},
		short:   "Manage users",
		service: func(e *env) (*resource.Service[model.User], error) { return resource.Users(e.api), nil },
		editor:  func(u *model.User) editor { return draftEditor{form.NewUser(u)} },
	})
}

func productsCmd(e *env) *cobra.Command {
	return recordCmd(e, kind[model.Product]{
		use:     "products",
		aliases: []string{"productos"},
		short:   "Manage products",
		service: func(e *env) (*resource.Service[model.Product], error) { return resource.Products(e.api), nil },
		editor:  func(p *model.Product) editor { return draftEditor{form.NewProduct(p)} },
	})
}

func transfersCmd(e *env) *cobra.Command {
	return recordCmd(e, kind[model.Transfer]{
		use:     "transfers",
		aliases: []string{"transferencias"},
		short:   "Manage transfers",
		service: func(e *env) (*resource.Service[model.Transfer], error) { return resource.Transfers(e.api), nil },
		editor:  func(t *model.Transfer) editor { return draftEditor{form.NewTransfer(t)} },
	})
}

func articlesCmd(e *env) *cobra.Command {
	var transferID int64

	c := recordCmd(e, kind[model.Article]{
		use:     "articles",
		aliases: []string{"articulos"},
		short:   "Manage the articles of a transfer",
		service: func(e *env) (*resource.Service[model.Article], error) {
			if transferID <= 0 {
				return nil, errors.New("--transfer is required")
			}
			return resource.Articles(e.api, transferID), nil
		},
		editor: func(a *model.Article) editor { return draftEditor{form.NewArticle(transferID, a)} },
	})
	c.PersistentFlags().Int64VarP(&transferID, "transfer", "t", 0, "Transfer the articles belong to")
	return c
}
