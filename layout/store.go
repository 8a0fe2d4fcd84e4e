package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEditModeOff    = errors.New("edit mode is off")
	ErrNoAreaSelected = errors.New("select an area first")
	ErrAreaMarked     = errors.New("area is marked for deletion")
	ErrSaveInFlight   = errors.New("a save is already in progress")
	ErrNotDragging    = errors.New("no drag in progress")
	ErrUnknownArea    = errors.New("area not found")
	ErrUnknownSeat    = errors.New("seat not found")
)

const (
	MinZoom     = 50
	MaxZoom     = 150
	ZoomStep    = 10
	DefaultZoom = 100
)

type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectArea
	SelectSeat
)

// Selection holds at most one selected entity. The kind decides which of
// the two keys is meaningful.
type Selection struct {
	Kind   SelectionKind
	AreaID string
	SeatID int64
}

// Filter narrows which seat statuses are highlighted. The zero value shows
// every status.
type Filter string

const FilterAll Filter = ""

func (f Filter) Matches(s Seat) bool {
	return f == FilterAll || Status(f) == s.Status
}

func (f Filter) String() string {
	if f == FilterAll {
		return "all"
	}
	return string(f)
}

// Store owns the editable layout together with the editor's UI state. It is
// not safe for concurrent use; the UI loop is its only writer.
type Store struct {
	ids    *IDAllocator
	layout Layout
	seats  []Seat

	editMode   bool
	zoom       int
	showLabels bool
	filter     Filter
	selection  Selection
	saving     bool
	dirty      bool

	hub  *PointerHub
	drag *DragController
}

func NewStore() *Store {
	s := &Store{
		ids:        NewIDAllocator(),
		layout:     Layout{Areas: []Area{}},
		zoom:       DefaultZoom,
		showLabels: true,
		hub:        NewPointerHub(),
	}
	s.drag = &DragController{store: s}
	return s
}

func (s *Store) Hub() *PointerHub {
	return s.hub
}

func (s *Store) Drag() *DragController {
	return s.drag
}

// Replace swaps the whole layout, as after a load or a save. Any drag in
// progress is cancelled and the selection is cleared.
func (s *Store) Replace(l Layout, seats []Seat) {
	s.drag.Cancel()
	s.layout = l.clone()
	if s.layout.Areas == nil {
		s.layout.Areas = []Area{}
	}
	s.seats = append([]Seat(nil), seats...)
	s.selection = Selection{}
	s.dirty = false
}

func (s *Store) Areas() []Area {
	return append([]Area(nil), s.layout.Areas...)
}

func (s *Store) Seats() []Seat {
	return append([]Seat(nil), s.seats...)
}

func (s *Store) Layout() Layout {
	return s.layout.clone()
}

func (s *Store) Area(id string) (Area, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Area{}, false
	}
	return s.layout.Areas[i], true
}

func (s *Store) Seat(seatID int64) (Seat, bool) {
	for _, seat := range s.seats {
		if seat.SeatID == seatID {
			return seat, true
		}
	}
	return Seat{}, false
}

// SeatsOf lists the seats drawn inside an area. Marked areas show none.
func (s *Store) SeatsOf(id string) []Seat {
	area, ok := s.Area(id)
	if !ok || area.MarkedForDeletion {
		return nil
	}
	var out []Seat
	for _, seat := range s.seats {
		if seat.AreaID == area.AreaID {
			out = append(out, seat)
		}
	}
	return out
}

// VisibleSeats returns every seat whose area exists and is not marked.
func (s *Store) VisibleSeats() []Seat {
	live := s.liveAreaIDs()
	var out []Seat
	for _, seat := range s.seats {
		if live[seat.AreaID] {
			out = append(out, seat)
		}
	}
	return out
}

// SeatCounts tallies visible seats per status.
func (s *Store) SeatCounts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, status := range Statuses {
		counts[status] = 0
	}
	for _, seat := range s.VisibleSeats() {
		counts[seat.Status]++
	}
	return counts
}

// Dirty reports unsaved local changes since the last Replace.
func (s *Store) Dirty() bool {
	return s.dirty
}

func (s *Store) EditMode() bool {
	return s.editMode
}

// SetEditMode switches edit mode. Leaving it cancels any drag; every switch
// clears the selection.
func (s *Store) SetEditMode(on bool) error {
	if s.saving {
		return ErrSaveInFlight
	}
	if !on {
		s.drag.Cancel()
	}
	s.editMode = on
	s.selection = Selection{}
	return nil
}

func (s *Store) Zoom() int {
	return s.zoom
}

func (s *Store) SetZoom(zoom int) {
	if zoom < MinZoom {
		zoom = MinZoom
	}
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	s.zoom = zoom
}

func (s *Store) ZoomIn() {
	s.SetZoom(s.zoom + ZoomStep)
}

func (s *Store) ZoomOut() {
	s.SetZoom(s.zoom - ZoomStep)
}

func (s *Store) ShowLabels() bool {
	return s.showLabels
}

func (s *Store) SetShowLabels(on bool) {
	s.showLabels = on
}

func (s *Store) ToggleLabels() {
	s.showLabels = !s.showLabels
}

func (s *Store) Filter() Filter {
	return s.filter
}

// SetFilter accepts "all" or any seat status, in either language.
func (s *Store) SetFilter(raw string) {
	value := strings.TrimSpace(raw)
	if value == "" || strings.EqualFold(value, "all") {
		s.filter = FilterAll
		return
	}
	s.filter = Filter(ParseStatus(value))
}

// CycleFilter steps through all, then each status in order.
func (s *Store) CycleFilter() Filter {
	if s.filter == FilterAll {
		s.filter = Filter(Statuses[0])
		return s.filter
	}
	for i, status := range Statuses {
		if Filter(status) == s.filter {
			if i+1 < len(Statuses) {
				s.filter = Filter(Statuses[i+1])
			} else {
				s.filter = FilterAll
			}
			return s.filter
		}
	}
	s.filter = FilterAll
	return s.filter
}

func (s *Store) Selection() Selection {
	return s.selection
}

func (s *Store) SelectedArea() (Area, bool) {
	if s.selection.Kind != SelectArea {
		return Area{}, false
	}
	return s.Area(s.selection.AreaID)
}

func (s *Store) SelectedSeat() (Seat, bool) {
	if s.selection.Kind != SelectSeat {
		return Seat{}, false
	}
	return s.Seat(s.selection.SeatID)
}

// SelectArea selects an area, dropping any seat selection. Marked areas can
// still be selected so they can be restored.
func (s *Store) SelectArea(id string) error {
	if err := s.checkEditable(); err != nil {
		return err
	}
	if s.indexOf(id) < 0 {
		return ErrUnknownArea
	}
	s.selection = Selection{Kind: SelectArea, AreaID: id}
	return nil
}

// SelectSeat selects a seat, dropping any area selection.
func (s *Store) SelectSeat(seatID int64) error {
	if err := s.checkEditable(); err != nil {
		return err
	}
	seat, ok := s.Seat(seatID)
	if !ok {
		return ErrUnknownSeat
	}
	area, ok := s.areaByAreaID(seat.AreaID)
	if !ok {
		return ErrUnknownArea
	}
	if area.MarkedForDeletion {
		return ErrAreaMarked
	}
	s.selection = Selection{Kind: SelectSeat, SeatID: seatID}
	return nil
}

func (s *Store) ClearSelection() {
	s.selection = Selection{}
}

// AddArea appends a local area at the default position. An empty name gets
// the next "Nueva Área N" label.
func (s *Store) AddArea(name string) (Area, error) {
	if err := s.checkEditable(); err != nil {
		return Area{}, err
	}
	tempID := s.ids.Next()
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Nueva Área %d", len(s.layout.Areas)+1)
	}
	area := Area{
		ID:     localAreaKey(tempID),
		AreaID: tempID,
		Origin: OriginLocal,
		X:      DefaultX,
		Y:      DefaultY,
		Name:   name,
	}
	s.layout.Areas = append(s.layout.Areas, area)
	s.dirty = true
	return area, nil
}

// AddSeat creates a seat in the selected area.
func (s *Store) AddSeat() (Seat, error) {
	if s.saving {
		return Seat{}, ErrSaveInFlight
	}
	if !s.editMode {
		return Seat{}, ErrNoAreaSelected
	}
	area, ok := s.SelectedArea()
	if !ok {
		return Seat{}, ErrNoAreaSelected
	}
	if area.MarkedForDeletion {
		return Seat{}, ErrAreaMarked
	}

	seatID := s.ids.Next()
	seat := Seat{
		SeatID: seatID,
		Code:   newSeatCode(seatID),
		Row:    0,
		Column: 0,
		Status: StatusAvailable,
		AreaID: area.AreaID,
		IsNew:  true,
	}
	s.seats = append(s.seats, seat)
	s.dirty = true
	return seat, nil
}

// MoveArea repositions the area being dragged. Any other id is ignored.
func (s *Store) MoveArea(id string, x, y float64) bool {
	active, ok := s.drag.Dragging()
	if !ok || active != id {
		return false
	}
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.layout.Areas[i].X = x
	s.layout.Areas[i].Y = y
	s.dirty = true
	return true
}

func (s *Store) Saving() bool {
	return s.saving
}

// BeginSave raises the loading flag. Only one save may be in flight.
func (s *Store) BeginSave() error {
	if s.saving {
		return ErrSaveInFlight
	}
	s.drag.Cancel()
	s.saving = true
	return nil
}

func (s *Store) EndSave() {
	s.saving = false
}

func (s *Store) checkEditable() error {
	if s.saving {
		return ErrSaveInFlight
	}
	if !s.editMode {
		return ErrEditModeOff
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, area := range s.layout.Areas {
		if area.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) areaByAreaID(areaID int64) (Area, bool) {
	for _, area := range s.layout.Areas {
		if area.AreaID == areaID {
			return area, true
		}
	}
	return Area{}, false
}

func (s *Store) liveAreaIDs() map[int64]bool {
	live := make(map[int64]bool, len(s.layout.Areas))
	for _, area := range s.layout.Areas {
		if !area.MarkedForDeletion {
			live[area.AreaID] = true
		}
	}
	return live
}

func newSeatCode(seatID int64) string {
	digits := strconv.FormatInt(seatID, 10)
	if len(digits) > 3 {
		digits = digits[len(digits)-3:]
	}
	return "N" + digits
}
