package devapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"croquis-cli/auth"
	"croquis-cli/layout"
	"croquis-cli/model"
	"croquis-cli/service"
)

func newTestServer(t *testing.T, secret string) (*httptest.Server, *Repository) {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "dev.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	server := httptest.NewServer(NewServer(repo, Options{Secret: secret, Quiet: true}))
	t.Cleanup(server.Close)
	return server, repo
}

func newTestClient(server *httptest.Server, token string) *service.Client {
	return service.NewClient(server.Client(), service.Options{BaseURL: server.URL + "/api", Token: token, Rate: -1})
}

func TestListEvents_Seeded(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := newTestClient(server, "")

	events, err := client.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 seeded events, got %d", len(events))
	}
}

func TestGetLayout_UnsavedEventHasNullConfig(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := newTestClient(server, "")

	resp, err := client.GetLayout(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if resp.LayoutConfig != nil {
		t.Fatalf("expected null layoutConfig, got %+v", resp.LayoutConfig)
	}
	l, seats := layout.Normalize(resp)
	if len(l.Areas) != 2 || len(seats) != 6 {
		t.Fatalf("expected 2 synthesized areas and 6 seats, got %d / %d", len(l.Areas), len(seats))
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := newTestClient(server, "")

	_, err := client.GetEvent(context.Background(), 999)
	if !service.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveRoundTrip_AssignsPermanentIDs(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := newTestClient(server, "")
	ctx := context.Background()

	resp, err := client.GetLayout(ctx, 2)
	if err != nil {
		t.Fatalf("get layout: %v", err)
	}
	store := layout.NewStore()
	store.Replace(layout.Normalize(resp))
	_ = store.SetEditMode(true)

	area, err := store.AddArea("Escenario")
	if err != nil {
		t.Fatalf("add area: %v", err)
	}
	_ = store.SelectArea(area.ID)
	if _, err := store.AddSeat(); err != nil {
		t.Fatalf("add seat: %v", err)
	}

	if err := store.BeginSave(); err != nil {
		t.Fatalf("begin save: %v", err)
	}
	result := layout.NewSaver(client).Execute(ctx, 2, layout.Plan(store.Areas(), store.Seats()))
	out := store.ApplySave(result)
	if !out.Saved {
		t.Fatalf("expected save to succeed, got %+v (err=%v)", out, result.Err)
	}

	areas := store.Areas()
	if len(areas) != 2 {
		t.Fatalf("expected 2 areas, got %+v", areas)
	}
	for _, a := range areas {
		if !a.Persisted() || strings.HasPrefix(a.ID, layout.LocalPrefix) {
			t.Fatalf("expected permanent ids, got %+v", a)
		}
	}
	for _, s := range store.Seats() {
		if s.IsNew || s.SeatID >= 1_000_000_000 {
			t.Fatalf("expected server seat ids, got %+v", s)
		}
	}
}

func TestDeleteAreaThenSave(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := newTestClient(server, "")
	ctx := context.Background()

	resp, _ := client.GetLayout(ctx, 1)
	store := layout.NewStore()
	store.Replace(layout.Normalize(resp))
	_ = store.SetEditMode(true)

	target := store.Areas()[0]
	_ = store.SelectArea(target.ID)
	if outcome, err := store.RequestDelete(func(string) bool { return true }); err != nil || outcome != layout.DeleteMarked {
		t.Fatalf("mark: %s / %v", outcome, err)
	}

	_ = store.BeginSave()
	out := store.ApplySave(layout.NewSaver(client).Execute(ctx, 1, layout.Plan(store.Areas(), store.Seats())))
	if !out.Saved {
		t.Fatalf("expected save to succeed, got %+v", out)
	}
	if _, ok := store.Area(target.ID); ok {
		t.Fatal("expected deleted area to be gone")
	}

	after, _ := client.GetLayout(ctx, 1)
	for _, s := range after.Seats {
		if s.AreaID == target.AreaID {
			t.Fatalf("server still has seats of deleted area: %+v", s)
		}
	}
	if err := client.DeleteArea(ctx, 1, target.AreaID); !service.IsNotFound(err) {
		t.Fatalf("expected second delete to be not found, got %v", err)
	}
}

func TestSecret_RequiresAdminToken(t *testing.T) {
	server, _ := newTestServer(t, "s3cret")
	ctx := context.Background()

	if _, err := newTestClient(server, "").ListEvents(ctx); !service.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	attendee, _ := auth.Sign("s3cret", 2, "ASISTENTE", time.Hour)
	client := newTestClient(server, attendee)
	if _, err := client.ListEvents(ctx); err != nil {
		t.Fatalf("expected read access, got %v", err)
	}
	if err := client.DeleteArea(ctx, 1, 1); !service.IsUnauthorized(err) {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}

	login, err := newTestClient(server, "").Login(ctx, "admin@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	admin := newTestClient(server, login.Token)
	if _, err := admin.PutLayout(ctx, 2, model.LayoutPayload{}); err != nil {
		t.Fatalf("expected admin write access, got %v", err)
	}
}

func TestPathID_Invalid(t *testing.T) {
	server, _ := newTestServer(t, "")

	res, err := http.Get(server.URL + "/api/eventos/abc")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}
