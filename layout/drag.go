package layout

import "sync"

type Point struct {
	X float64
	Y float64
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

type PointerEvent struct {
	Kind PointerKind
	Pos  Point
}

type PointerListener func(PointerEvent)

// PointerHub fans pointer events out to whoever holds a subscription. It
// stands in for document-wide listeners: events reach subscribers no matter
// where on screen they happen.
type PointerHub struct {
	mu        sync.Mutex
	next      int
	listeners map[int]PointerListener
}

func NewPointerHub() *PointerHub {
	return &PointerHub{listeners: map[int]PointerListener{}}
}

// Subscribe registers fn and returns its release function. Release is
// idempotent.
func (h *PointerHub) Subscribe(fn PointerListener) (release func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	h.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

func (h *PointerHub) Dispatch(ev PointerEvent) {
	h.mu.Lock()
	listeners := make([]PointerListener, 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Active reports how many subscriptions are currently held.
func (h *PointerHub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

type dragState int

const (
	dragIdle dragState = iota
	dragDragging
)

// DragController moves one area at a time with the pointer. While a drag
// is active it holds a hub subscription; every way out of the drag releases
// it.
type DragController struct {
	store *Store

	state    dragState
	activeID string
	grab     Point
	origin   Point
	release  func()
}

// SetOrigin records where the canvas sits in pointer coordinates.
func (d *DragController) SetOrigin(origin Point) {
	d.origin = origin
}

func (d *DragController) Origin() Point {
	return d.origin
}

func (d *DragController) Dragging() (string, bool) {
	if d.state != dragDragging {
		return "", false
	}
	return d.activeID, true
}

// Begin grabs an area. The offset between the pointer and the area's corner
// is held for the whole drag.
func (d *DragController) Begin(id string, pointer Point) error {
	s := d.store
	if err := s.checkEditable(); err != nil {
		return err
	}
	if d.state == dragDragging {
		return nil
	}
	area, ok := s.Area(id)
	if !ok {
		return ErrUnknownArea
	}
	if area.MarkedForDeletion {
		return ErrAreaMarked
	}

	d.grab = pointer.Sub(d.origin).Sub(Point{X: area.X, Y: area.Y})
	d.activeID = id
	d.state = dragDragging
	d.release = s.hub.Subscribe(d.handle)
	return nil
}

func (d *DragController) handle(ev PointerEvent) {
	switch ev.Kind {
	case PointerMove:
		d.moveTo(ev.Pos)
	case PointerUp:
		_ = d.End()
	}
}

func (d *DragController) moveTo(pointer Point) {
	if d.state != dragDragging {
		return
	}
	pos := pointer.Sub(d.origin).Sub(d.grab)
	d.store.MoveArea(d.activeID, pos.X, pos.Y)
}

// End finishes the drag, leaving the area where it was last moved.
func (d *DragController) End() error {
	if d.state != dragDragging {
		return ErrNotDragging
	}
	d.reset()
	return nil
}

// Cancel ends any drag without reporting an error.
func (d *DragController) Cancel() {
	if d.state == dragDragging {
		d.reset()
	}
}

func (d *DragController) reset() {
	if d.release != nil {
		d.release()
		d.release = nil
	}
	d.state = dragIdle
	d.activeID = ""
	d.grab = Point{}
}
