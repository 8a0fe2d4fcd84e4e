package tui

import (
	"fmt"
	"math"
	"strings"

	"croquis-cli/layout"

	"github.com/charmbracelet/lipgloss"
)

// The canvas is an 800x400 px stage. At 100% zoom one terminal cell covers
// 8x16 px.
const (
	canvasWidthPx  = 800.0
	canvasHeightPx = 400.0
	cellWidthPx    = 8.0
	cellHeightPx   = 16.0

	areaCols    = 17
	seatsPerRow = 5
	seatPitch   = 3
	statsWidth  = 34
)

type cellKind int

const (
	cellEmpty cellKind = iota
	cellLabel
	cellLabelMarked
	cellArea
	cellAreaSelected
	cellAreaDragging
	cellAreaMarked
	cellSeatAvailable
	cellSeatOccupied
	cellSeatReserved
	cellSeatBlocked
	cellSeatDimmed
	cellSeatSelected
)

type cell struct {
	ch   rune
	kind cellKind
}

type hitKind int

const (
	hitNone hitKind = iota
	hitArea
	hitSeat
)

type hit struct {
	kind   hitKind
	areaID string
	seatID int64
	marked bool
}

// canvasGeometry maps between terminal cells and stage pixels. Screen
// coordinates are absolute terminal cells; the canvas starts at
// (originCol, originRow).
type canvasGeometry struct {
	zoom      int
	originCol int
	originRow int
	cols      int
	rows      int
}

func (m appModel) geometry() canvasGeometry {
	g := canvasGeometry{
		zoom:      m.editor.Zoom(),
		originCol: 1,
		// header, blank line, stage line, top border
		originRow: lipgloss.Height(m.headerView()) + 3,
	}
	g.cols = int(math.Ceil(canvasWidthPx / g.pxPerCol()))
	g.rows = int(math.Ceil(canvasHeightPx / g.pxPerRow()))
	if m.width > 0 {
		maxCols := m.width - statsWidth - 4
		if maxCols < 20 {
			maxCols = 20
		}
		if g.cols > maxCols {
			g.cols = maxCols
		}
	}
	if m.height > 0 {
		maxRows := m.height - g.originRow - 5
		if maxRows < 5 {
			maxRows = 5
		}
		if g.rows > maxRows {
			g.rows = maxRows
		}
	}
	return g
}

func (g canvasGeometry) pxPerCol() float64 {
	return cellWidthPx * float64(layout.DefaultZoom) / float64(g.zoom)
}

func (g canvasGeometry) pxPerRow() float64 {
	return cellHeightPx * float64(layout.DefaultZoom) / float64(g.zoom)
}

// pointer converts a terminal cell to pointer coordinates in pixels.
func (g canvasGeometry) pointer(x, y int) layout.Point {
	return layout.Point{X: float64(x) * g.pxPerCol(), Y: float64(y) * g.pxPerRow()}
}

// origin is the pointer position of the canvas' top-left corner.
func (g canvasGeometry) origin() layout.Point {
	return g.pointer(g.originCol, g.originRow)
}

// areaCell is the canvas cell of an area's top-left corner.
func (g canvasGeometry) areaCell(area layout.Area) (int, int) {
	return int(math.Floor(area.X / g.pxPerCol())), int(math.Floor(area.Y / g.pxPerRow()))
}

func areaRows(seats int) int {
	return 2 + (seats+seatsPerRow-1)/seatsPerRow
}

// hitTest finds what sits under the screen cell (x, y). Areas drawn later
// are on top.
func (g canvasGeometry) hitTest(editor *layout.Store, x, y int) hit {
	c, r := x-g.originCol, y-g.originRow
	if c < 0 || r < 0 || c >= g.cols || r >= g.rows {
		return hit{}
	}
	areas := editor.Areas()
	for i := len(areas) - 1; i >= 0; i-- {
		area := areas[i]
		seats := editor.SeatsOf(area.ID)
		ac, ar := g.areaCell(area)
		if c < ac || c >= ac+areaCols || r < ar || r >= ar+areaRows(len(seats)) {
			continue
		}
		seatRow := r - ar - 2
		seatCol := c - ac - 1
		if seatRow >= 0 && seatCol >= 0 && seatCol%seatPitch < 2 && seatCol/seatPitch < seatsPerRow {
			idx := seatRow*seatsPerRow + seatCol/seatPitch
			if idx < len(seats) {
				return hit{kind: hitSeat, areaID: area.ID, seatID: seats[idx].SeatID}
			}
		}
		return hit{kind: hitArea, areaID: area.ID, marked: area.MarkedForDeletion}
	}
	return hit{}
}

func (m appModel) editorView() string {
	g := m.geometry()
	stage := lipgloss.PlaceHorizontal(g.cols+2, lipgloss.Center, hint("[ Stage ]"))
	canvas := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Render(m.renderCanvas(g))
	left := stage + "\n" + canvas
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", m.statsView())
}

func (m appModel) renderCanvas(g canvasGeometry) string {
	grid := make([][]cell, g.rows)
	for r := range grid {
		grid[r] = make([]cell, g.cols)
		for c := range grid[r] {
			grid[r][c] = cell{ch: ' ', kind: cellEmpty}
		}
	}
	put := func(c, r int, ch rune, kind cellKind) {
		if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
			return
		}
		grid[r][c] = cell{ch: ch, kind: kind}
	}
	text := func(c, r int, s string, kind cellKind) {
		for i, ch := range []rune(s) {
			put(c+i, r, ch, kind)
		}
	}

	sel := m.editor.Selection()
	dragID, dragging := m.editor.Drag().Dragging()
	showLabels := m.editor.ShowLabels()
	filter := m.editor.Filter()

	for _, area := range m.editor.Areas() {
		seats := m.editor.SeatsOf(area.ID)
		ac, ar := g.areaCell(area)
		rows := areaRows(len(seats))

		body := cellArea
		switch {
		case area.MarkedForDeletion:
			body = cellAreaMarked
		case dragging && dragID == area.ID:
			body = cellAreaDragging
		case sel.Kind == layout.SelectArea && sel.AreaID == area.ID:
			body = cellAreaSelected
		}
		for r := 0; r < rows; r++ {
			for c := 0; c < areaCols; c++ {
				put(ac+c, ar+r, ' ', body)
			}
		}

		labelKind := cellLabel
		if area.MarkedForDeletion {
			labelKind = cellLabelMarked
		}
		if showLabels {
			text(ac, ar, fitCenter(area.Label(), areaCols), labelKind)
		} else {
			text(ac, ar, strings.Repeat(" ", areaCols), labelKind)
		}
		text(ac, ar+1, fitCenter(areaCaption(area, len(seats)), areaCols), body)

		for i, seat := range seats {
			sc := ac + 1 + (i%seatsPerRow)*seatPitch
			sr := ar + 2 + i/seatsPerRow
			kind := seatKind(seat, filter)
			if sel.Kind == layout.SelectSeat && sel.SeatID == seat.SeatID {
				kind = cellSeatSelected
			}
			code := "  "
			if showLabels {
				code = fitLeft(seat.ShortCode(), 2)
			}
			text(sc, sr, code, kind)
		}
	}

	var b strings.Builder
	for r, row := range grid {
		if r > 0 {
			b.WriteString("\n")
		}
		start := 0
		for c := 1; c <= len(row); c++ {
			if c < len(row) && row[c].kind == row[start].kind {
				continue
			}
			run := make([]rune, 0, c-start)
			for _, cl := range row[start:c] {
				run = append(run, cl.ch)
			}
			b.WriteString(cellStyle(row[start].kind).Render(string(run)))
			start = c
		}
	}
	return b.String()
}

func areaCaption(area layout.Area, seats int) string {
	switch {
	case area.MarkedForDeletion:
		return "to delete"
	case !area.Persisted():
		return fmt.Sprintf("new • %d", seats)
	case seats == 1:
		return "1 seat"
	default:
		return fmt.Sprintf("%d seats", seats)
	}
}

func seatKind(seat layout.Seat, filter layout.Filter) cellKind {
	if !filter.Matches(seat) {
		return cellSeatDimmed
	}
	switch seat.Status {
	case layout.StatusOccupied:
		return cellSeatOccupied
	case layout.StatusReserved:
		return cellSeatReserved
	case layout.StatusBlocked:
		return cellSeatBlocked
	default:
		return cellSeatAvailable
	}
}

func cellStyle(kind cellKind) lipgloss.Style {
	base := lipgloss.NewStyle()
	switch kind {
	case cellLabel:
		return base.Bold(true).Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	case cellLabelMarked:
		return base.Strikethrough(true).Foreground(lipgloss.Color("203")).Background(lipgloss.Color("236"))
	case cellArea:
		return base.Foreground(lipgloss.Color("153")).Background(lipgloss.Color("24"))
	case cellAreaSelected:
		return base.Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("27"))
	case cellAreaDragging:
		return base.Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("33"))
	case cellAreaMarked:
		return base.Strikethrough(true).Foreground(lipgloss.Color("217")).Background(lipgloss.Color("52"))
	case cellSeatAvailable:
		return base.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("2"))
	case cellSeatOccupied:
		return base.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
	case cellSeatReserved:
		return base.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	case cellSeatBlocked:
		return base.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	case cellSeatDimmed:
		return base.Faint(true).Foreground(lipgloss.Color("244")).Background(lipgloss.Color("238"))
	case cellSeatSelected:
		return base.Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("5"))
	default:
		return base
	}
}

func statusColor(status layout.Status) string {
	switch status {
	case layout.StatusOccupied:
		return "1"
	case layout.StatusReserved:
		return "3"
	case layout.StatusBlocked:
		return "8"
	default:
		return "2"
	}
}

func statusLabel(status layout.Status) string {
	switch status {
	case layout.StatusOccupied:
		return "Occupied"
	case layout.StatusReserved:
		return "Reserved"
	case layout.StatusBlocked:
		return "Blocked"
	default:
		return "Available"
	}
}

// statsView is the side panel: event occupancy, seat counts per status and
// the current view settings.
func (m appModel) statsView() string {
	capacity := m.event.Capacity
	sold := m.event.Sold()
	pct := 0
	if capacity > 0 {
		pct = int(math.Round(float64(sold) / float64(capacity) * 100))
	}

	title := lipgloss.NewStyle().Bold(true)
	lines := []string{
		title.Render("Statistics"),
		fmt.Sprintf("Capacity:  %d seats", capacity),
		fmt.Sprintf("Sold:      %d (%d%%)", sold, pct),
		fmt.Sprintf("Available: %d seats", capacity-sold),
		progressBar(pct, statsWidth-6),
		"",
	}
	counts := m.editor.SeatCounts()
	for _, status := range layout.Statuses {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(status))).Render("●")
		lines = append(lines, fmt.Sprintf("%s %s (%d)", dot, statusLabel(status), counts[status]))
	}

	labels := "on"
	if !m.editor.ShowLabels() {
		labels = "off"
	}
	filter := "all seats"
	if f := m.editor.Filter(); f != layout.FilterAll {
		filter = statusLabel(layout.Status(f))
	}
	lines = append(lines,
		"",
		title.Render("View"),
		fmt.Sprintf("Zoom:   %d%%", m.editor.Zoom()),
		fmt.Sprintf("Labels: %s", labels),
		fmt.Sprintf("Filter: %s", filter),
	)

	if sel := m.selectionLines(); len(sel) > 0 {
		lines = append(lines, "", title.Render("Selection"))
		lines = append(lines, sel...)
	}

	return lipgloss.NewStyle().
		Width(statsWidth).
		Padding(0, 1).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("8")).
		Render(strings.Join(lines, "\n"))
}

func (m appModel) selectionLines() []string {
	if area, ok := m.editor.SelectedArea(); ok {
		lines := []string{
			fmt.Sprintf("Area: %s", area.Label()),
			hint(fmt.Sprintf("%s • x=%.0f y=%.0f", area.Origin, area.X, area.Y)),
		}
		if area.MarkedForDeletion {
			lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render("Marked for deletion"))
		}
		return lines
	}
	if seat, ok := m.editor.SelectedSeat(); ok {
		lines := []string{
			fmt.Sprintf("Seat: %s", seat.Code),
			hint(fmt.Sprintf("%s • row %d col %d", statusLabel(seat.Status), seat.Row, seat.Column)),
		}
		if seat.IsNew {
			lines = append(lines, hint("unsaved"))
		}
		return lines
	}
	return nil
}

func progressBar(pct int, width int) string {
	if width < 1 {
		return ""
	}
	filled := pct * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	on := lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Render(strings.Repeat("█", filled))
	off := lipgloss.NewStyle().Faint(true).Render(strings.Repeat("░", width-filled))
	return on + off
}

func fitCenter(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	pad := width - len(runes)
	return strings.Repeat(" ", pad/2) + s + strings.Repeat(" ", pad-pad/2)
}

func fitLeft(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}
