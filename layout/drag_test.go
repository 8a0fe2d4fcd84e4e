package layout

import (
	"errors"
	"testing"
)

func TestDrag_MovesWithGrabOffset(t *testing.T) {
	s := newTestStore(t)
	d := s.Drag()
	d.SetOrigin(Point{X: 10, Y: 20})

	// Grab 5px right and 4px below the area's corner at (100,80).
	if err := d.Begin("area-5", Point{X: 115, Y: 104}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	s.Hub().Dispatch(PointerEvent{Kind: PointerMove, Pos: Point{X: 215, Y: 154}})

	area, _ := s.Area("area-5")
	if area.X != 200 || area.Y != 130 {
		t.Fatalf("expected (200,130), got (%v,%v)", area.X, area.Y)
	}
}

func TestDrag_PointerUpAnywhereEndsAndReleases(t *testing.T) {
	s := newTestStore(t)
	d := s.Drag()

	if err := d.Begin("area-5", Point{X: 100, Y: 80}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if s.Hub().Active() != 1 {
		t.Fatalf("expected 1 listener during drag, got %d", s.Hub().Active())
	}

	s.Hub().Dispatch(PointerEvent{Kind: PointerUp, Pos: Point{X: -500, Y: 9000}})
	if _, dragging := d.Dragging(); dragging {
		t.Fatal("expected drag to end")
	}
	if s.Hub().Active() != 0 {
		t.Fatalf("expected listener released, got %d", s.Hub().Active())
	}

	s.Hub().Dispatch(PointerEvent{Kind: PointerMove, Pos: Point{X: 1, Y: 1}})
	area, _ := s.Area("area-5")
	if area.X != 100 || area.Y != 80 {
		t.Fatalf("area moved after release: %+v", area)
	}
}

func TestDrag_NoBoundsClamping(t *testing.T) {
	s := newTestStore(t)
	d := s.Drag()

	_ = d.Begin("area-5", Point{X: 100, Y: 80})
	s.Hub().Dispatch(PointerEvent{Kind: PointerMove, Pos: Point{X: -40, Y: -10}})

	area, _ := s.Area("area-5")
	if area.X != -40 || area.Y != -10 {
		t.Fatalf("expected free placement, got (%v,%v)", area.X, area.Y)
	}
}

func TestDrag_RefusedOutsideEditModeOrOnMarkedArea(t *testing.T) {
	s := newTestStore(t)
	_ = s.SelectArea("area-5")
	_, _ = s.RequestDelete(func(string) bool { return true })

	if err := s.Drag().Begin("area-5", Point{}); !errors.Is(err, ErrAreaMarked) {
		t.Fatalf("expected ErrAreaMarked, got %v", err)
	}

	_ = s.SetEditMode(false)
	if err := s.Drag().Begin("area-5", Point{}); !errors.Is(err, ErrEditModeOff) {
		t.Fatalf("expected ErrEditModeOff, got %v", err)
	}
	if s.Hub().Active() != 0 {
		t.Fatalf("expected no listeners, got %d", s.Hub().Active())
	}
}

func TestDrag_CancelledByEditModeOffAndReplace(t *testing.T) {
	s := newTestStore(t)
	_ = s.Drag().Begin("area-5", Point{})

	_ = s.SetEditMode(false)
	if s.Hub().Active() != 0 {
		t.Fatal("expected edit mode off to release the listener")
	}

	_ = s.SetEditMode(true)
	_ = s.Drag().Begin("area-5", Point{})
	s.Replace(Layout{}, nil)
	if _, dragging := s.Drag().Dragging(); dragging || s.Hub().Active() != 0 {
		t.Fatal("expected replace to cancel the drag")
	}
}

func TestDrag_EndWhenIdle(t *testing.T) {
	s := newTestStore(t)
	if err := s.Drag().End(); !errors.Is(err, ErrNotDragging) {
		t.Fatalf("expected ErrNotDragging, got %v", err)
	}
}

func TestPointerHub_ReleaseIsIdempotent(t *testing.T) {
	hub := NewPointerHub()
	calls := 0
	release := hub.Subscribe(func(PointerEvent) { calls++ })
	hub.Dispatch(PointerEvent{Kind: PointerMove})
	release()
	release()
	hub.Dispatch(PointerEvent{Kind: PointerMove})

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if hub.Active() != 0 {
		t.Fatalf("expected no listeners, got %d", hub.Active())
	}
}
