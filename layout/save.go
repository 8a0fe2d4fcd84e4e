package layout

import (
	"context"
	"fmt"

	"croquis-cli/model"
)

// Remote is the part of the persistence API a save needs.
type Remote interface {
	DeleteArea(ctx context.Context, eventID int64, areaID int64) error
	PutLayout(ctx context.Context, eventID int64, payload model.LayoutPayload) (model.LayoutResponse, error)
}

// SavePlan is the partition of a layout taken when a save starts.
type SavePlan struct {
	// Deletes are persisted areas marked for deletion; each needs a remote call.
	Deletes []Area
	// Dropped are local areas marked for deletion; they vanish without a call.
	Dropped []Area
	Kept    []Area
	Seats   []Seat

	order []string
}

// Plan partitions a snapshot of the store for saving.
func Plan(areas []Area, seats []Seat) SavePlan {
	plan := SavePlan{Seats: append([]Seat(nil), seats...)}
	for _, area := range areas {
		plan.order = append(plan.order, area.ID)
		switch {
		case area.MarkedForDeletion && area.Persisted():
			plan.Deletes = append(plan.Deletes, area)
		case area.MarkedForDeletion:
			plan.Dropped = append(plan.Dropped, area)
		default:
			plan.Kept = append(plan.Kept, area)
		}
	}
	return plan
}

type DeleteFailure struct {
	Area Area
	Err  error
}

// SaveResult is everything a save learned, handed back to the UI loop.
type SaveResult struct {
	Deleted  []int64
	Failures []DeleteFailure
	Dropped  []string
	Payload  model.LayoutPayload
	Response *model.LayoutResponse
	Err      error
}

// NeedsReload reports a successful upsert whose response cannot be trusted.
func (r SaveResult) NeedsReload() bool {
	if r.Err != nil {
		return false
	}
	return r.Response == nil || r.Response.LayoutConfig == nil || r.Response.Seats == nil
}

type Saver struct {
	remote Remote
}

func NewSaver(remote Remote) *Saver {
	return &Saver{remote: remote}
}

// Execute runs the deletes one at a time, then a single upsert of what
// survived. A failed delete is recorded and the save goes on with that area
// restored.
func (s *Saver) Execute(ctx context.Context, eventID int64, plan SavePlan) SaveResult {
	var result SaveResult
	for _, area := range plan.Dropped {
		result.Dropped = append(result.Dropped, area.ID)
	}

	survivors := append([]Area(nil), plan.Kept...)
	for _, area := range plan.Deletes {
		if err := s.remote.DeleteArea(ctx, eventID, area.AreaID); err != nil {
			area.MarkedForDeletion = false
			result.Failures = append(result.Failures, DeleteFailure{Area: area, Err: err})
			survivors = append(survivors, area)
			continue
		}
		result.Deleted = append(result.Deleted, area.AreaID)
	}
	survivors = keepOrder(plan, survivors)

	result.Payload = BuildPayload(survivors, plan.Seats)
	resp, err := s.remote.PutLayout(ctx, eventID, result.Payload)
	if err != nil {
		result.Err = err
		return result
	}
	result.Response = &resp
	return result
}

// BuildPayload renders the outbound body. Marked areas never make it out,
// and seats are limited to areas that do.
func BuildPayload(areas []Area, seats []Seat) model.LayoutPayload {
	out := model.LayoutPayload{
		LayoutConfig: model.LayoutConfigPayload{Areas: []model.AreaPayload{}},
		Seats:        []model.SeatRecord{},
	}
	live := make(map[int64]bool, len(areas))
	for _, area := range areas {
		if area.MarkedForDeletion {
			continue
		}
		live[area.AreaID] = true
		out.LayoutConfig.Areas = append(out.LayoutConfig.Areas, model.AreaPayload{
			Id:     area.ID,
			X:      area.X,
			Y:      area.Y,
			AreaID: area.AreaID,
			Name:   area.Name,
		})
	}
	for _, seat := range seats {
		if !live[seat.AreaID] {
			continue
		}
		out.Seats = append(out.Seats, model.SeatRecord{
			SeatID: seat.SeatID,
			Code:   seat.Code,
			Row:    seat.Row,
			Column: seat.Column,
			Status: string(seat.Status),
			AreaID: seat.AreaID,
			IsNew:  seat.IsNew,
		})
	}
	return out
}

// keepOrder puts survivors back in the order the areas had when the plan
// was taken.
func keepOrder(plan SavePlan, survivors []Area) []Area {
	byID := make(map[string]Area, len(survivors))
	for _, area := range survivors {
		byID[area.ID] = area
	}
	order := plan.order
	if len(order) == 0 {
		for _, area := range survivors {
			order = append(order, area.ID)
		}
	}
	ordered := make([]Area, 0, len(survivors))
	for _, id := range order {
		if area, ok := byID[id]; ok {
			ordered = append(ordered, area)
			delete(byID, id)
		}
	}
	return ordered
}

// ApplyOutcome tells the UI what happened once a save result is applied.
type ApplyOutcome struct {
	Notices []Notice
	Saved   bool
	Reload  bool
}

// ApplySave folds a save result into the store and lowers the loading flag.
func (s *Store) ApplySave(result SaveResult) ApplyOutcome {
	defer s.EndSave()

	var out ApplyOutcome
	for _, f := range result.Failures {
		out.Notices = append(out.Notices, failure("Partial error",
			fmt.Sprintf("Could not delete area %s.", f.Area.DisplayName())))
	}

	if result.Err != nil {
		s.applyDeletions(result)
		out.Notices = append(out.Notices, failure("Save failed",
			ErrorText(result.Err, "Could not save the layout changes.")))
		return out
	}

	if result.NeedsReload() {
		s.applyDeletions(result)
		msg := "Unexpected server response. Reloading."
		if result.Response != nil && result.Response.Message != "" {
			msg = result.Response.Message
		}
		out.Notices = append(out.Notices, warning("Warning", msg))
		out.Reload = true
		return out
	}

	l, seats := Normalize(*result.Response)
	for i := range seats {
		seats[i].IsNew = false
	}
	s.Replace(l, seats)
	msg := result.Response.Message
	if msg == "" {
		msg = "Layout and seats saved."
	}
	out.Notices = append(out.Notices, success("Saved", msg))
	out.Saved = true
	return out
}

// applyDeletions keeps local state in line with what the server already
// did, so a retried save does not delete the same area twice.
func (s *Store) applyDeletions(result SaveResult) {
	deleted := make(map[int64]bool, len(result.Deleted))
	for _, id := range result.Deleted {
		deleted[id] = true
	}
	dropped := make(map[string]bool, len(result.Dropped))
	for _, id := range result.Dropped {
		dropped[id] = true
	}
	failed := make(map[string]bool, len(result.Failures))
	for _, f := range result.Failures {
		failed[f.Area.ID] = true
	}

	areas := s.layout.Areas[:0]
	for _, area := range s.layout.Areas {
		if area.Persisted() && deleted[area.AreaID] {
			continue
		}
		if dropped[area.ID] {
			continue
		}
		if failed[area.ID] {
			area.MarkedForDeletion = false
		}
		areas = append(areas, area)
	}
	s.layout.Areas = areas

	seats := s.seats[:0]
	for _, seat := range s.seats {
		if deleted[seat.AreaID] {
			continue
		}
		seats = append(seats, seat)
	}
	s.seats = seats

	switch s.selection.Kind {
	case SelectArea:
		if _, ok := s.SelectedArea(); !ok {
			s.selection = Selection{}
		}
	case SelectSeat:
		if _, ok := s.SelectedSeat(); !ok {
			s.selection = Selection{}
		}
	}
}
