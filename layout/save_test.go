package layout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"croquis-cli/model"
)

type userError struct{ msg string }

func (e userError) Error() string       { return "api error: " + e.msg }
func (e userError) UserMessage() string { return e.msg }

type fakeRemote struct {
	deleted   []int64
	failAreas map[int64]error
	puts      []model.LayoutPayload
	putErr    error
	respond   func(model.LayoutPayload) model.LayoutResponse
}

func (f *fakeRemote) DeleteArea(_ context.Context, _ int64, areaID int64) error {
	f.deleted = append(f.deleted, areaID)
	if err, ok := f.failAreas[areaID]; ok {
		return err
	}
	return nil
}

func (f *fakeRemote) PutLayout(_ context.Context, _ int64, payload model.LayoutPayload) (model.LayoutResponse, error) {
	f.puts = append(f.puts, payload)
	if f.putErr != nil {
		return model.LayoutResponse{}, f.putErr
	}
	if f.respond != nil {
		return f.respond(payload), nil
	}
	return echoLayout(payload), nil
}

// echoLayout answers like a server that assigns no new ids.
func echoLayout(payload model.LayoutPayload) model.LayoutResponse {
	areas := make([]model.AreaRecord, 0, len(payload.LayoutConfig.Areas))
	for _, a := range payload.LayoutConfig.Areas {
		areaID := a.AreaID
		areas = append(areas, model.AreaRecord{Id: a.Id, X: a.X, Y: a.Y, AreaID: &areaID, Name: a.Name})
	}
	return model.LayoutResponse{
		Message:      "Croquis actualizado",
		LayoutConfig: &model.LayoutConfig{Areas: areas},
		Seats:        append([]model.SeatRecord{}, payload.Seats...),
	}
}

func runSave(t *testing.T, s *Store, remote Remote) ApplyOutcome {
	t.Helper()
	if err := s.BeginSave(); err != nil {
		t.Fatalf("begin save: %v", err)
	}
	result := NewSaver(remote).Execute(context.Background(), 1, Plan(s.Areas(), s.Seats()))
	return s.ApplySave(result)
}

func markForDeletion(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.SelectArea(id); err != nil {
		t.Fatalf("select %s: %v", id, err)
	}
	if outcome, err := s.RequestDelete(confirmYes); err != nil || outcome != DeleteMarked {
		t.Fatalf("mark %s: %s / %v", id, outcome, err)
	}
}

func TestSave_DeletesMarkedPersistedArea(t *testing.T) {
	s := newTestStore(t)
	markForDeletion(t, s, "area-5")

	remote := &fakeRemote{}
	out := runSave(t, s, remote)

	if len(remote.deleted) != 1 || remote.deleted[0] != 5 {
		t.Fatalf("expected one delete of area 5, got %v", remote.deleted)
	}
	if !out.Saved {
		t.Fatalf("expected saved, got %+v", out)
	}
	if _, ok := s.Area("area-5"); ok {
		t.Fatal("expected area-5 gone")
	}
	for _, seat := range s.Seats() {
		if seat.AreaID == 5 {
			t.Fatalf("expected no seats of area 5, got %+v", seat)
		}
	}
	for _, seat := range remote.puts[0].Seats {
		if seat.AreaID == 5 {
			t.Fatal("payload carries a seat of a deleted area")
		}
	}
}

func TestSave_FailedDeleteIsRevertedAndSaveContinues(t *testing.T) {
	s := newTestStore(t)
	markForDeletion(t, s, "area-5")

	remote := &fakeRemote{failAreas: map[int64]error{5: errors.New("connection reset")}}
	out := runSave(t, s, remote)

	if len(remote.puts) != 1 {
		t.Fatalf("expected upsert to run, got %d puts", len(remote.puts))
	}
	payload := remote.puts[0]
	if len(payload.LayoutConfig.Areas) != 1 || payload.LayoutConfig.Areas[0].Id != "area-5" {
		t.Fatalf("expected area-5 in payload, got %+v", payload.LayoutConfig.Areas)
	}
	area, ok := s.Area("area-5")
	if !ok || area.MarkedForDeletion {
		t.Fatalf("expected area-5 present and unmarked, got %+v (present=%v)", area, ok)
	}

	partial := 0
	for _, n := range out.Notices {
		if n.Title == "Partial error" {
			partial++
			if !strings.Contains(n.Text, "Palco") {
				t.Fatalf("expected notice to name the area, got %q", n.Text)
			}
		}
	}
	if partial != 1 {
		t.Fatalf("expected one partial-failure notice, got %d", partial)
	}
}

func TestSave_PayloadNeverCarriesDeletionMarker(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.AddArea("Nueva")
	markForDeletion(t, s, "area-5")

	remote := &fakeRemote{failAreas: map[int64]error{5: errors.New("boom")}}
	runSave(t, s, remote)

	body, err := json.Marshal(remote.puts[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	lower := strings.ToLower(string(body))
	if strings.Contains(lower, "markedfordeletion") || strings.Contains(lower, "isdeleting") {
		t.Fatalf("payload leaks deletion marker: %s", body)
	}
}

func TestBuildPayload_ExcludesSeatsOfMissingAreas(t *testing.T) {
	areas := []Area{
		{ID: "area-1", AreaID: 1, Origin: OriginPersisted},
		{ID: "area-2", AreaID: 2, Origin: OriginPersisted, MarkedForDeletion: true},
	}
	seats := []Seat{
		{SeatID: 1, AreaID: 1},
		{SeatID: 2, AreaID: 2},
		{SeatID: 3, AreaID: 77},
	}

	payload := BuildPayload(areas, seats)
	if len(payload.LayoutConfig.Areas) != 1 {
		t.Fatalf("expected 1 area, got %d", len(payload.LayoutConfig.Areas))
	}
	if len(payload.Seats) != 1 || payload.Seats[0].SeatID != 1 {
		t.Fatalf("expected only seat 1, got %+v", payload.Seats)
	}
}

func TestSave_LocalMarkedAreaDroppedWithoutCall(t *testing.T) {
	plan := Plan([]Area{
		{ID: "new-table-1700000000000", AreaID: 1_700_000_000_000, Origin: OriginLocal, MarkedForDeletion: true},
		{ID: "area-1", AreaID: 1, Origin: OriginPersisted},
	}, []Seat{{SeatID: 1, AreaID: 1_700_000_000_000}, {SeatID: 2, AreaID: 1}})

	remote := &fakeRemote{}
	result := NewSaver(remote).Execute(context.Background(), 1, plan)

	if len(remote.deleted) != 0 {
		t.Fatalf("expected no deletes, got %v", remote.deleted)
	}
	if len(result.Payload.LayoutConfig.Areas) != 1 || len(result.Payload.Seats) != 1 {
		t.Fatalf("unexpected payload: %+v", result.Payload)
	}
}

func TestSave_ReplacesTemporaryIDsFromResponse(t *testing.T) {
	s := newTestStore(t)
	area, _ := s.AddArea("")
	_ = s.SelectArea(area.ID)
	_, _ = s.AddSeat()

	remote := &fakeRemote{respond: func(p model.LayoutPayload) model.LayoutResponse {
		resp := echoLayout(p)
		for i := range resp.LayoutConfig.Areas {
			if *resp.LayoutConfig.Areas[i].AreaID == area.AreaID {
				permanent := int64(6)
				resp.LayoutConfig.Areas[i].Id = "area-6"
				resp.LayoutConfig.Areas[i].AreaID = &permanent
			}
		}
		for i := range resp.Seats {
			if resp.Seats[i].AreaID == area.AreaID {
				resp.Seats[i].AreaID = 6
				resp.Seats[i].SeatID = 40
			}
		}
		return resp
	}}
	out := runSave(t, s, remote)

	if !out.Saved || out.Notices[len(out.Notices)-1].Text != "Croquis actualizado" {
		t.Fatalf("expected server message in success notice, got %+v", out)
	}
	saved, ok := s.Area("area-6")
	if !ok || !saved.Persisted() {
		t.Fatalf("expected persisted area-6, got %+v", saved)
	}
	for _, seat := range s.Seats() {
		if seat.IsNew {
			t.Fatalf("expected no new seats after save, got %+v", seat)
		}
	}
	if s.Saving() || s.Dirty() {
		t.Fatal("expected saving flag lowered and store clean")
	}
	if !s.EditMode() {
		t.Fatal("expected edit mode to stay on")
	}
}

func TestSave_UpsertFailureKeepsLocalStateAndBookkeeping(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.AddArea("Nueva")
	markForDeletion(t, s, "area-5")

	remote := &fakeRemote{putErr: userError{msg: "Layout inválido"}}
	out := runSave(t, s, remote)

	if out.Saved || out.Reload {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	last := out.Notices[len(out.Notices)-1]
	if last.Level != NoticeError || last.Text != "Layout inválido" {
		t.Fatalf("unexpected notice: %+v", last)
	}
	if _, ok := s.Area("area-5"); ok {
		t.Fatal("expected successfully deleted area to be dropped locally")
	}
	if len(s.Areas()) != 1 {
		t.Fatalf("expected local area kept, got %+v", s.Areas())
	}
	if !s.EditMode() || s.Saving() {
		t.Fatal("expected edit mode on and saving flag lowered")
	}

	// A retry must not delete the same area again.
	remote.putErr = nil
	runSave(t, s, remote)
	if len(remote.deleted) != 1 {
		t.Fatalf("expected a single delete across both saves, got %v", remote.deleted)
	}
}

func TestSave_MalformedResponseRequestsReload(t *testing.T) {
	s := newTestStore(t)
	remote := &fakeRemote{respond: func(model.LayoutPayload) model.LayoutResponse {
		return model.LayoutResponse{Message: "ok"}
	}}

	out := runSave(t, s, remote)
	if !out.Reload || out.Saved {
		t.Fatalf("expected reload, got %+v", out)
	}
	if out.Notices[0].Level != NoticeWarning {
		t.Fatalf("expected warning notice, got %+v", out.Notices[0])
	}
}
