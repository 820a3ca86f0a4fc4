package mockapi_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"testing"

	"github.com/erazemk/soporte/internal/client"
	"github.com/erazemk/soporte/internal/db"
	"github.com/erazemk/soporte/internal/form"
	"github.com/erazemk/soporte/internal/listview"
	"github.com/erazemk/soporte/internal/mockapi"
	"github.com/erazemk/soporte/internal/model"
	"github.com/erazemk/soporte/internal/resource"
	"github.com/erazemk/soporte/internal/session"
	"github.com/erazemk/soporte/internal/store"
)

// loggedIn returns a client holding a valid session against a fresh backend.
func loggedIn(t *testing.T) (*mockapi.Server, *client.Client, *session.Store) {
	t.Helper()
	ctx := context.Background()
	backend, srv := mockapi.NewTestServer(t)

	sess := session.New(&store.Settings{DB: db.NewTestDB(t)})
	if err := sess.Load(ctx); err != nil {
		t.Fatalf("loading session: %v", err)
	}
	api := client.New(srv.URL, sess, 0)

	user, token, err := resource.NewAuth(api).Login(ctx, mockapi.TestEmail, mockapi.TestPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := sess.Login(ctx, user, token); err != nil {
		t.Fatalf("storing session: %v", err)
	}
	return backend, api, sess
}

func TestLoginFailureMessage(t *testing.T) {
	_, srv := mockapi.NewTestServer(t)
	api := client.New(srv.URL, nil, 0)

	_, _, err := resource.NewAuth(api).Login(context.Background(), mockapi.TestEmail, "wrong")
	if !client.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401, got %v", err)
	}
	if msg := client.UserMessage(err); msg != "Credenciales incorrectas" {
		t.Errorf("expected server message, got %q", msg)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	_, srv := mockapi.NewTestServer(t)
	api := client.New(srv.URL, nil, 0)

	_, err := resource.Products(api).ListPage(context.Background(), 1)
	if !client.IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("expected 401 without token, got %v", err)
	}
}

func TestMeAndLogoutRevokesToken(t *testing.T) {
	_, api, sess := loggedIn(t)
	ctx := context.Background()
	authSvc := resource.NewAuth(api)

	me, err := authSvc.Me(ctx)
	if err != nil || me.Email != mockapi.TestEmail {
		t.Fatalf("Me = %+v, %v", me, err)
	}
	if err := authSvc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := authSvc.Me(ctx); !client.IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("expected revoked token to be rejected, got %v", err)
	}
	if err := sess.Logout(ctx); err != nil {
		t.Fatalf("clearing session: %v", err)
	}
}

func TestListControllerAgainstBackend(t *testing.T) {
	backend, api, _ := loggedIn(t)
	ctx := context.Background()
	backend.AddProducts(25)

	c := listview.New[model.Product]("products", resource.Products(api), nil)
	if err := c.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	for c.State() == listview.Loaded {
		if err := c.LoadMore(ctx); err != nil {
			t.Fatalf("LoadMore: %v", err)
		}
	}

	items := c.Items()
	if len(items) != 25 {
		t.Fatalf("expected 25 products, got %d", len(items))
	}
	seen := make(map[int64]bool)
	for _, p := range items {
		if seen[p.ID] {
			t.Fatalf("duplicate product %d", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestProductLifecycle(t *testing.T) {
	backend, api, _ := loggedIn(t)
	ctx := context.Background()
	products := resource.Products(api)
	backend.AddProducts(3)

	c := listview.New[model.Product]("products", products, nil)
	c.Mount(ctx)

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	var buf bytes.Buffer
	png.Encode(&buf, img)
	open := func(string) (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(buf.Bytes())), nil }

	d := form.NewProduct(nil)
	d.Set("description", "Monitor LG")
	d.Set("quantity", "2")
	d.Set("price", "499.90")
	d.Pick("monitor.png")
	created, isNew, err := form.Submit[model.Product](ctx, products, d, open)
	if err != nil || !isNew {
		t.Fatalf("Submit create: %v (new=%v)", err, isNew)
	}
	if created.Quantity != 2 || created.Price != 499.9 || created.File1 == "" {
		t.Errorf("unexpected created product: %+v", created)
	}
	if data, ok := backend.File(created.File1); !ok || len(data) == 0 {
		t.Errorf("expected uploaded file at %q", created.File1)
	}
	c.Created(created)

	edit := form.NewProduct(&created)
	edit.Set("description", "Monitor LG 27")
	updated, isNew, err := form.Submit[model.Product](ctx, products, edit, nil)
	if err != nil || isNew {
		t.Fatalf("Submit update: %v (new=%v)", err, isNew)
	}
	if updated.File1 != created.File1 || updated.Description != "Monitor LG 27" {
		t.Errorf("expected file kept and description changed, got %+v", updated)
	}
	if err := c.Updated(ctx, updated); err != nil {
		t.Fatalf("Updated: %v", err)
	}
	if items := c.Items(); items[0].Description != "Monitor LG 27" || len(items) != 4 {
		t.Errorf("unexpected list after update: %+v", items)
	}

	if err := products.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Deleted(ctx); err != nil {
		t.Fatalf("Deleted: %v", err)
	}
	if n := len(c.Items()); n != 3 {
		t.Errorf("expected 3 products after delete, got %d", n)
	}
}

func TestSupportCreateAndSearch(t *testing.T) {
	backend, api, _ := loggedIn(t)
	ctx := context.Background()
	tickets := resource.NewTickets(api)
	backend.AddSupport(2, "Entrega de llaves")

	d := form.NewSupport(nil)
	clientID := int64(1)
	d.ClientID = &clientID
	d.Cellphone = "987654321"
	d.Detail.Subject = "Fuga de agua en cocina"
	sup, isNew, err := form.Submit[model.Support](ctx, tickets, d, nil)
	if err != nil || !isNew {
		t.Fatalf("Submit: %v", err)
	}
	latest, ok := sup.Latest()
	if !ok || latest.Priority != model.PriorityNormal || latest.Subject != "Fuga de agua en cocina" {
		t.Errorf("unexpected detail: %+v", sup.Details)
	}

	found, err := tickets.Search(ctx, "fuga")
	if err != nil || len(found) != 1 || found[0].ID != sup.ID {
		t.Fatalf("Search = %+v, %v", found, err)
	}

	clients, err := tickets.SearchClients(ctx, "maría")
	if err != nil || len(clients) != 1 || clients[0].ID != 2 {
		t.Fatalf("SearchClients = %+v, %v", clients, err)
	}

	opts, err := tickets.FetchOptions(ctx)
	if err != nil {
		t.Fatalf("FetchOptions: %v", err)
	}
	if len(opts.Areas) != 3 || len(opts.Clients) != 3 || opts.Types[0].Name != "Garantía" {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestArticlesAreScopedToTransfer(t *testing.T) {
	backend, api, _ := loggedIn(t)
	ctx := context.Background()
	a := backend.AddTransfer(model.Transfer{Description: "A"})
	b := backend.AddTransfer(model.Transfer{Description: "B"})
	backend.AddArticles(a.ID, 3)
	backend.AddArticles(b.ID, 12)

	page, err := resource.Articles(api, a.ID).ListPage(ctx, 1)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if len(page.Data) != 3 || page.LastPage != 1 {
		t.Errorf("expected 3 articles on one page, got %d (last %d)", len(page.Data), page.LastPage)
	}

	page, _ = resource.Articles(api, b.ID).ListPage(ctx, 2)
	if len(page.Data) != 2 || page.LastPage != 2 {
		t.Errorf("expected 2 articles on page 2, got %d (last %d)", len(page.Data), page.LastPage)
	}

	transfers, err := resource.Transfers(api).ListPage(ctx, 1)
	if err != nil || len(transfers.Data) != 2 {
		t.Fatalf("transfers ListPage = %+v, %v", transfers, err)
	}
}

func TestInjectedFailureReachesAlert(t *testing.T) {
	backend, api, _ := loggedIn(t)
	ctx := context.Background()
	backend.AddProducts(15)
	backend.Fail(http.MethodGet, "/products/fetch", http.StatusInternalServerError, "Servicio no disponible")

	var got []string
	alerts := listview.AlertFunc(func(_, msg string) { got = append(got, msg) })
	c := listview.New[model.Product]("products", resource.Products(api), alerts)

	if err := c.Mount(ctx); err == nil {
		t.Fatal("expected injected failure")
	}
	if len(got) != 1 || got[0] != "Servicio no disponible" {
		t.Errorf("unexpected alerts: %v", got)
	}
	if err := c.Mount(ctx); err != nil || len(c.Items()) != 10 {
		t.Errorf("expected recovery on retry, got %v with %d items", err, len(c.Items()))
	}
}

func TestUpdateWithoutOverrideIsRejected(t *testing.T) {
	backend, api, sess := loggedIn(t)
	p := backend.AddProducts(1)[0]
	token, _ := sess.Token()

	body := bytes.NewReader([]byte(`{"description":"x"}`))
	req, _ := http.NewRequest(http.MethodPost, api.BaseURL+"/products/"+strconv.FormatInt(p.ID, 10), body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 without _method override, got %d", resp.StatusCode)
	}
}
