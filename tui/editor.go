package tui

import (
	"fmt"
	"log"

	"croquis-cli/layout"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m appModel) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	key := msg.String()
	if key != m.armedKey {
		m.armedKey = ""
	}
	switch key {
	case "q":
		if cmd, armed := m.armDiscard("q", "Press q again to quit without saving."); armed {
			return m, cmd, true
		}
		return m, tea.Quit, true
	case "esc":
		if m.editor.Selection().Kind != layout.SelectNone {
			m.editor.ClearSelection()
			return m, nil, true
		}
		next, cmd := m.goBack()
		return next, cmd, true
	case "e":
		if err := m.editor.SetEditMode(!m.editor.EditMode()); err != nil {
			return m, m.pushNotice(layout.NoticeFor(err)), true
		}
		return m, nil, true
	case "a":
		area, err := m.editor.AddArea("")
		if err != nil {
			return m, m.pushNotice(layout.NoticeFor(err)), true
		}
		_ = m.editor.SelectArea(area.ID)
		return m, m.pushNotice(layout.Notice{Level: layout.NoticeSuccess, Title: "Area added", Text: fmt.Sprintf("%s added. Drag it into place and save.", area.DisplayName())}), true
	case "s":
		seat, err := m.editor.AddSeat()
		if err != nil {
			return m, m.pushNotice(layout.NoticeFor(err)), true
		}
		return m, m.pushNotice(layout.Notice{Level: layout.NoticeSuccess, Title: "Seat added", Text: fmt.Sprintf("Seat %s added.", seat.Code)}), true
	case "x", "delete", "backspace":
		return m.requestDelete()
	case "ctrl+s":
		return m.startSave()
	case "tab", "shift+tab":
		step := 1
		if key == "shift+tab" {
			step = -1
		}
		if err := m.cycleArea(step); err != nil {
			return m, m.pushNotice(layout.NoticeFor(err)), true
		}
		return m, nil, true
	case "+", "=":
		m.editor.ZoomIn()
		m.savePreferences()
		return m, nil, true
	case "-", "_":
		m.editor.ZoomOut()
		m.savePreferences()
		return m, nil, true
	case "0":
		m.editor.SetZoom(layout.DefaultZoom)
		m.savePreferences()
		return m, nil, true
	case "l":
		m.editor.ToggleLabels()
		m.savePreferences()
		return m, nil, true
	case "f":
		m.editor.CycleFilter()
		m.savePreferences()
		return m, nil, true
	case "r":
		if m.editor.Saving() {
			return m, m.pushNotice(layout.NoticeFor(layout.ErrSaveInFlight)), true
		}
		if cmd, armed := m.armDiscard("r", "Press r again to reload and discard them."); armed {
			return m, cmd, true
		}
		m.editor.Drag().Cancel()
		m.state = stateLoadingLayout
		return m, tea.Batch(m.fetchLayoutCmd(m.eventID), m.spinner.Tick), true
	}
	return m, nil, true
}

// armDiscard guards a key that would drop unsaved changes. The first press
// only warns; the second press of the same key is let through.
func (m *appModel) armDiscard(key, text string) (tea.Cmd, bool) {
	if m.editor.Dirty() && m.armedKey != key {
		m.armedKey = key
		return m.pushNotice(layout.Notice{Level: layout.NoticeWarning, Title: "Unsaved changes", Text: text}), true
	}
	m.armedKey = ""
	return nil, false
}

// cycleArea moves the area selection forward or backward in layout order.
func (m *appModel) cycleArea(step int) error {
	areas := m.editor.Areas()
	if len(areas) == 0 {
		return nil
	}
	next := 0
	if current, ok := m.editor.SelectedArea(); ok {
		for i, area := range areas {
			if area.ID == current.ID {
				next = (i + step + len(areas)) % len(areas)
				break
			}
		}
	} else if step < 0 {
		next = len(areas) - 1
	}
	return m.editor.SelectArea(areas[next].ID)
}

func (m appModel) requestDelete() (tea.Model, tea.Cmd, bool) {
	if prompt, ok := m.editor.NeedsConfirmation(); ok {
		m.editor.Drag().Cancel()
		m.confirmPrompt = prompt
		m.state = stateConfirm
		return m, nil, true
	}
	return m.runDelete(nil)
}

func (m appModel) runDelete(confirm layout.ConfirmFunc) (tea.Model, tea.Cmd, bool) {
	area, _ := m.editor.SelectedArea()
	outcome, err := m.editor.RequestDelete(confirm)
	if err != nil {
		return m, m.pushNotice(layout.NoticeFor(err)), true
	}
	return m, m.pushNotice(layout.DeleteNotice(outcome, area)), true
}

func (m appModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.state = stateEditor
		m.confirmPrompt = ""
		return m.runDelete(func(string) bool { return true })
	case "n", "N", "esc":
		m.state = stateEditor
		m.confirmPrompt = ""
		return m.runDelete(func(string) bool { return false })
	}
	return m, nil, true
}

func (m appModel) startSave() (tea.Model, tea.Cmd, bool) {
	if m.eventID == 0 {
		return m, m.pushNotice(layout.NoticeFor(errNoEvent)), true
	}
	if !m.editor.EditMode() {
		return m, m.pushNotice(layout.NoticeFor(layout.ErrEditModeOff)), true
	}
	if err := m.editor.BeginSave(); err != nil {
		return m, m.pushNotice(layout.NoticeFor(err)), true
	}
	plan := layout.Plan(m.editor.Areas(), m.editor.Seats())
	log.Printf("save event %d: %d deletes, %d kept areas, %d seats", m.eventID, len(plan.Deletes), len(plan.Kept), len(plan.Seats))
	return m, tea.Batch(m.saveCmd(plan), m.spinner.Tick), true
}

func (m appModel) finishSave(result layout.SaveResult) (tea.Model, tea.Cmd) {
	outcome := m.editor.ApplySave(result)
	if result.Err != nil {
		log.Printf("save event %d: %v", m.eventID, result.Err)
	}
	var cmds []tea.Cmd
	for _, n := range outcome.Notices {
		cmds = append(cmds, m.pushNotice(n))
	}
	if outcome.Reload {
		m.state = stateLoadingLayout
		cmds = append(cmds, m.fetchLayoutCmd(m.eventID), m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m appModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	g := m.geometry()
	pointer := g.pointer(msg.X, msg.Y)
	drag := m.editor.Drag()

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.editor.EditMode() {
			return m, nil
		}
		if _, dragging := drag.Dragging(); dragging {
			return m, nil
		}
		h := g.hitTest(m.editor, msg.X, msg.Y)
		switch h.kind {
		case hitSeat:
			if err := m.editor.SelectSeat(h.seatID); err != nil {
				return m, m.pushNotice(layout.NoticeFor(err))
			}
		case hitArea:
			if err := m.editor.SelectArea(h.areaID); err != nil {
				return m, m.pushNotice(layout.NoticeFor(err))
			}
			if h.marked {
				return m, nil
			}
			drag.SetOrigin(g.origin())
			if err := drag.Begin(h.areaID, pointer); err != nil {
				return m, m.pushNotice(layout.NoticeFor(err))
			}
		}
		return m, nil
	case tea.MouseActionMotion:
		m.editor.Hub().Dispatch(layout.PointerEvent{Kind: layout.PointerMove, Pos: pointer})
	case tea.MouseActionRelease:
		m.editor.Hub().Dispatch(layout.PointerEvent{Kind: layout.PointerUp, Pos: pointer})
	}
	return m, nil
}

func (m appModel) confirmView() string {
	body := lipgloss.NewStyle().Bold(true).Render("Confirm") + "\n\n" + m.confirmPrompt + "\n\n" + hint("y confirm • n cancel")
	return lipgloss.NewStyle().
		Padding(0, 2).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("3")).
		Render(body)
}
