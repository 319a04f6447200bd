package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/postquery/internal/query"
)

// Pane identifies the child model that receives key input.
type Pane int

const (
	// PaneList is the post list.
	PaneList Pane = iota
	// PaneForm is the creation form.
	PaneForm
)

// helpText is rendered under the form.
const helpText = "tab: switch focus • ↑/↓: scroll • r: refresh • enter: add post • q: quit"

// formRows is the height taken by pane borders, the list header, the form
// and the help line.
const formRows = 7

// paneBorder is the width of a pane's left and right border.
const paneBorder = 2

// AppModel composes the post list and the creation form. Both children share
// the query client passed to NewAppModel.
type AppModel struct {
	list *PostListModel
	form *CreatePostModel

	focus    Pane
	quitting bool
	width    int
	height   int
}

// NewAppModel builds the root model. The caller owns client and closes it
// after the program exits.
func NewAppModel(ctx context.Context, client *query.Client, api PostsAPI) (*AppModel, error) {
	form, err := NewCreatePostModel(ctx, client, api)
	if err != nil {
		return nil, err
	}
	m := &AppModel{
		list:  NewPostListModel(ctx, client, api),
		form:  form,
		focus: PaneList,
	}
	m.list.Focus()
	return m, nil
}

// Init starts the list subscription.
func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.list.Init(), m.form.Init())
}

// Update routes key input to the focused child and everything else to both.
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.Update(tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-formRows, 1)})
		return m, nil

	case postsStateMsg, postsStoppedMsg:
		_, cmd := m.list.Update(msg)
		return m, cmd

	case postCreatedMsg:
		_, cmd := m.form.Update(msg)
		return m, cmd
	}

	_, listCmd := m.list.Update(msg)
	_, formCmd := m.form.Update(msg)
	return m, tea.Batch(listCmd, formCmd)
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "tab", "shift+tab":
		return m, m.toggleFocus()
	case "q":
		if m.focus == PaneList {
			return m.quit()
		}
	}

	if m.focus == PaneList {
		_, cmd := m.list.Update(msg)
		return m, cmd
	}
	_, cmd := m.form.Update(msg)
	return m, cmd
}

func (m *AppModel) toggleFocus() tea.Cmd {
	if m.focus == PaneList {
		m.focus = PaneForm
		m.list.Blur()
		return m.form.Focus()
	}
	m.focus = PaneList
	m.form.Blur()
	m.list.Focus()
	return nil
}

func (m *AppModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.list.Close()
	return m, tea.Quit
}

// View renders the list above the form, each in its own pane.
func (m *AppModel) View() string {
	if m.quitting {
		return ""
	}

	listPane, formPane := PaneStyle, FocusedPaneStyle
	if m.focus == PaneList {
		listPane, formPane = FocusedPaneStyle, PaneStyle
	}
	if m.width > paneBorder {
		listPane = listPane.Width(m.width - paneBorder)
		formPane = formPane.Width(m.width - paneBorder)
	}

	var b strings.Builder
	b.WriteString(listPane.Render(m.list.View()))
	b.WriteByte('\n')
	b.WriteString(formPane.Render(m.form.View()))
	b.WriteByte('\n')
	b.WriteString(SubtleStyle.Render(helpText))
	b.WriteByte('\n')
	return b.String()
}

// Focus returns the pane receiving key input.
func (m *AppModel) Focus() Pane { return m.focus }

// List returns the list child.
func (m *AppModel) List() *PostListModel { return m.list }

// Form returns the form child.
func (m *AppModel) Form() *CreatePostModel { return m.form }

// Close releases the list subscription. It is safe to call after quitting.
func (m *AppModel) Close() {
	m.list.Close()
}
