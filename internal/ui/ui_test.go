package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func update(t *testing.T, m tea.Model, msgs ...tea.Msg) tea.Model {
	t.Helper()
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func testItems() []Item {
	return []Item{
		{Label: "Never Gonna Give You Up", Detail: "3:33"},
		{Label: "Together Forever", Detail: "3:25"},
		{Label: "Whenever You Need Somebody", Detail: "3:55"},
	}
}

func TestSelectModelEnterChoosesCursor(t *testing.T) {
	m := update(t, newSelectModel("Pick", testItems()),
		tea.WindowSizeMsg{Width: 80, Height: 24},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	sm := m.(selectModel)
	if !sm.done {
		t.Fatal("enter should finish the picker")
	}
	if sm.chosen != 1 {
		t.Errorf("chosen = %d, want 1", sm.chosen)
	}
	if sm.View() != "" {
		t.Error("finished picker should render nothing")
	}
}

func TestSelectModelEscCancels(t *testing.T) {
	m := update(t, newSelectModel("Pick", testItems()),
		tea.WindowSizeMsg{Width: 80, Height: 24},
		tea.KeyMsg{Type: tea.KeyEsc},
	)
	sm := m.(selectModel)
	if !sm.done || sm.chosen != -1 {
		t.Errorf("esc should cancel, got done=%v chosen=%d", sm.done, sm.chosen)
	}
}

func TestSelectModelView(t *testing.T) {
	m := update(t, newSelectModel("Pick a track", testItems()), tea.WindowSizeMsg{Width: 80, Height: 24})
	if m.View() == "" {
		t.Error("open picker should render the list")
	}
}

func TestSelectEmpty(t *testing.T) {
	if _, err := Select("Pick", nil); err == nil {
		t.Error("expected error for empty items")
	}
}

func TestInputModel(t *testing.T) {
	m := update(t, newInputModel("Search", "artist or title"),
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("rick")},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	im := m.(inputModel)
	if !im.submitted {
		t.Fatal("enter should submit")
	}
	if im.input.Value() != "rick" {
		t.Errorf("value = %q, want rick", im.input.Value())
	}
}

func TestInputModelEscCancels(t *testing.T) {
	m := update(t, newInputModel("Search", ""),
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")},
		tea.KeyMsg{Type: tea.KeyEsc},
	)
	im := m.(inputModel)
	if im.submitted || !im.done {
		t.Errorf("esc should cancel, got submitted=%v done=%v", im.submitted, im.done)
	}
}
