package layout

import "fmt"

type DeleteOutcome int

const (
	DeleteNothingSelected DeleteOutcome = iota
	DeleteRemovedLocal
	DeleteMarked
	DeleteRestored
	DeleteSeatNotImplemented
	DeleteCancelled
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteRemovedLocal:
		return "removed"
	case DeleteMarked:
		return "marked"
	case DeleteRestored:
		return "restored"
	case DeleteSeatNotImplemented:
		return "seat-not-implemented"
	case DeleteCancelled:
		return "cancelled"
	default:
		return "nothing-selected"
	}
}

// ConfirmFunc asks the user to confirm a destructive step. A nil
// ConfirmFunc declines.
type ConfirmFunc func(prompt string) bool

// NeedsConfirmation reports whether RequestDelete would ask before acting,
// and with which prompt.
func (s *Store) NeedsConfirmation() (string, bool) {
	if s.saving || !s.editMode {
		return "", false
	}
	area, ok := s.SelectedArea()
	if !ok {
		return "", false
	}
	if !area.Persisted() {
		return fmt.Sprintf("Remove unsaved area %q? This cannot be undone.", area.DisplayName()), true
	}
	if !area.MarkedForDeletion {
		return fmt.Sprintf("Mark area %q for deletion? It will be deleted on save.", area.DisplayName()), true
	}
	return "", false
}

// RequestDelete applies the delete action to the current selection. Local
// areas go away at once with their seats; persisted areas toggle their
// deletion mark and are only removed by a save.
func (s *Store) RequestDelete(confirm ConfirmFunc) (DeleteOutcome, error) {
	if err := s.checkEditable(); err != nil {
		return DeleteNothingSelected, err
	}

	switch s.selection.Kind {
	case SelectSeat:
		return DeleteSeatNotImplemented, nil
	case SelectArea:
	default:
		return DeleteNothingSelected, nil
	}

	i := s.indexOf(s.selection.AreaID)
	if i < 0 {
		s.selection = Selection{}
		return DeleteNothingSelected, ErrUnknownArea
	}
	area := s.layout.Areas[i]

	if area.Persisted() && area.MarkedForDeletion {
		s.layout.Areas[i].MarkedForDeletion = false
		s.selection = Selection{}
		s.dirty = true
		return DeleteRestored, nil
	}

	prompt, _ := s.NeedsConfirmation()
	if confirm == nil || !confirm(prompt) {
		return DeleteCancelled, nil
	}

	if !area.Persisted() {
		s.removeArea(area)
		s.selection = Selection{}
		s.dirty = true
		return DeleteRemovedLocal, nil
	}

	s.drag.Cancel()
	s.layout.Areas[i].MarkedForDeletion = true
	s.selection = Selection{}
	s.dirty = true
	return DeleteMarked, nil
}

// DeleteNotice describes the result of RequestDelete for the user.
func DeleteNotice(outcome DeleteOutcome, area Area) Notice {
	name := area.DisplayName()
	switch outcome {
	case DeleteRemovedLocal:
		return success("Unsaved area removed", fmt.Sprintf("Area %q was removed.", name))
	case DeleteMarked:
		return warning("Area marked for deletion", fmt.Sprintf("Area %q will be deleted when you save.", name))
	case DeleteRestored:
		return success("Area restored", fmt.Sprintf("Area %q is no longer marked for deletion. Save to keep it.", name))
	case DeleteSeatNotImplemented:
		return info("Not yet implemented", "Deleting individual seats is not yet implemented.")
	case DeleteCancelled:
		return info("Cancelled", "Nothing was deleted.")
	default:
		return info("Nothing selected", "Select an area or a seat to delete.")
	}
}

func (s *Store) removeArea(area Area) {
	s.drag.Cancel()
	areas := s.layout.Areas[:0]
	for _, a := range s.layout.Areas {
		if a.ID != area.ID {
			areas = append(areas, a)
		}
	}
	s.layout.Areas = areas

	seats := s.seats[:0]
	for _, seat := range s.seats {
		if seat.AreaID != area.AreaID {
			seats = append(seats, seat)
		}
	}
	s.seats = seats
}
