package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/rshade/postquery/internal/post"
	"github.com/rshade/postquery/internal/query"
)

// Fixed text rendered by the creation form.
const (
	TitlePlaceholder = "Add Title"
	SubmitLabel      = "Add Post"
)

const titleCharLimit = 200

// postCreatedMsg reports the outcome of one submission.
type postCreatedMsg struct {
	post post.Post
	err  error
}

// CreatePostModel is a one-field form that creates a post on Enter.
type CreatePostModel struct {
	ctx      context.Context
	log      zerolog.Logger
	mutation *query.Mutation[post.NewPost, post.Post]

	input   textinput.Model
	draft   post.Draft
	focused bool

	submitted int
	settled   int
}

// NewCreatePostModel creates the form with an empty draft.
func NewCreatePostModel(ctx context.Context, client *query.Client, api PostsAPI) (*CreatePostModel, error) {
	if api == nil {
		return nil, fmt.Errorf("create form: %w", ErrNilAPI)
	}
	mutation, err := query.NewMutation[post.NewPost, post.Post](client, api.CreatePost)
	if err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}

	ti := textinput.New()
	ti.Placeholder = TitlePlaceholder
	ti.CharLimit = titleCharLimit
	ti.Prompt = ""

	return &CreatePostModel{
		ctx:      ctx,
		log:      zerolog.Ctx(ctx).With().Str("component", "create_form").Logger(),
		mutation: mutation,
		input:    ti,
	}, nil
}

// Init implements tea.Model.
func (m *CreatePostModel) Init() tea.Cmd {
	return nil
}

// Update edits the draft on key input and submits on Enter.
func (m *CreatePostModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case postCreatedMsg:
		m.settled++
		if msg.err != nil {
			m.log.Debug().Err(msg.err).Msg("create post failed")
		} else {
			m.log.Debug().Int("id", msg.post.ID).Msg("post created")
		}
		return m, nil

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			return m, m.Submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != m.draft.Title {
		if err := m.draft.Set(post.FieldTitle, v); err != nil {
			m.log.Debug().Err(err).Msg("draft update rejected")
		}
	}
	return m, cmd
}

// Submit returns a command that fires one create mutation for the current
// draft. The input keeps its text.
func (m *CreatePostModel) Submit() tea.Cmd {
	payload := m.draft.Payload()
	m.submitted++
	ctx := m.ctx
	mutation := m.mutation
	return func() tea.Msg {
		created, err := mutation.Mutate(ctx, payload)
		return postCreatedMsg{post: created, err: err}
	}
}

// View renders the input with the submit button beside it.
func (m *CreatePostModel) View() string {
	button := ButtonIdleStyle.Render(SubmitLabel)
	if m.focused {
		button = ButtonStyle.Render(SubmitLabel)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, m.input.View(), "  ", button)
}

// Draft returns the form's current draft.
func (m *CreatePostModel) Draft() post.Draft {
	return m.draft
}

// MutationState returns the state of the latest submission.
func (m *CreatePostModel) MutationState() query.MutationState[post.NewPost, post.Post] {
	return m.mutation.State()
}

// Submitted returns how many submissions were fired.
func (m *CreatePostModel) Submitted() int {
	return m.submitted
}

// Settled returns how many submissions have completed, successfully or not.
func (m *CreatePostModel) Settled() int {
	return m.settled
}

// Focus gives the text input the cursor.
func (m *CreatePostModel) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur releases the cursor.
func (m *CreatePostModel) Blur() {
	m.focused = false
	m.input.Blur()
}

// Focused reports whether the form has focus.
func (m *CreatePostModel) Focused() bool { return m.focused }
