package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/rshade/postquery/internal/post"
	"github.com/rshade/postquery/internal/query"
	"github.com/rshade/postquery/internal/tui/listview"
)

// Fixed text rendered by the list view.
const (
	ListHeader       = "Home"
	ListErrorMessage = "Error loading data!!!"
)

// postsStateMsg carries a new snapshot of the posts query.
type postsStateMsg struct {
	state query.State[[]post.Post]
}

// postsStoppedMsg is sent once the observer stops delivering updates.
type postsStoppedMsg struct {
	err error
}

// PostListModel renders the shared posts query.
type PostListModel struct {
	ctx    context.Context
	client *query.Client
	q      query.Query[[]post.Post]
	log    zerolog.Logger

	observer *query.Observer[[]post.Post]
	state    query.State[[]post.Post]
	err      error

	list    *listview.Model[post.Post]
	loading *LoadingState
	focused bool
}

// NewPostListModel creates the list view. The subscription starts in Init.
func NewPostListModel(ctx context.Context, client *query.Client, api PostsAPI) *PostListModel {
	m := &PostListModel{
		ctx:     ctx,
		client:  client,
		q:       PostsQuery(api),
		log:     zerolog.Ctx(ctx).With().Str("component", "posts_list").Logger(),
		loading: NewLoadingState(),
	}
	m.list = listview.New[post.Post](post.Post.Key, m.renderPost)
	return m
}

// Init subscribes to the posts query and starts the spinner.
func (m *PostListModel) Init() tea.Cmd {
	obs, err := query.Observe(m.client, m.q)
	if err != nil {
		m.err = err
		return nil
	}
	m.observer = obs
	m.apply(obs.Current())
	return tea.Batch(m.loading.Init(), m.waitForPosts())
}

// waitForPosts blocks until the observer reports a new state.
func (m *PostListModel) waitForPosts() tea.Cmd {
	obs := m.observer
	ctx := m.ctx
	return func() tea.Msg {
		s, err := obs.Next(ctx)
		if err != nil {
			return postsStoppedMsg{err: err}
		}
		return postsStateMsg{state: s}
	}
}

// Update handles query updates, spinner ticks and navigation keys.
func (m *PostListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case postsStateMsg:
		m.apply(msg.state)
		return m, m.waitForPosts()

	case postsStoppedMsg:
		if !errors.Is(msg.err, query.ErrObserverClosed) && !errors.Is(msg.err, context.Canceled) {
			m.log.Debug().Err(msg.err).Msg("posts subscription stopped")
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.Refetch()
			return m, nil
		}
		m.list.Update(msg)
		return m, nil

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	}

	if m.state.IsPending() {
		return m, m.loading.Update(msg)
	}
	return m, nil
}

func (m *PostListModel) apply(s query.State[[]post.Post]) {
	m.state = s
	if s.IsSuccess() {
		m.list.SetItems(s.Data)
	}
}

// Refetch marks the posts query stale, which refetches it for this observer.
func (m *PostListModel) Refetch() {
	n := m.client.Invalidate(PostsKey())
	m.log.Debug().Int("entries", n).Msg("posts invalidated")
}

// View renders the loading line, the error message, or the post titles.
func (m *PostListModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(ListErrorMessage)
	}

	switch m.state.Status {
	case query.StatusPending:
		return RenderLoading(m.loading)
	case query.StatusError:
		return ErrorStyle.Render(ListErrorMessage)
	case query.StatusSuccess:
		var b strings.Builder
		b.WriteString(HeaderStyle.Render(ListHeader))
		b.WriteString("  ")
		b.WriteString(SubtleStyle.Render(m.freshness()))
		if m.list.Len() > 0 {
			b.WriteByte('\n')
			b.WriteString(m.list.View())
		}
		return b.String()
	default:
		return ""
	}
}

// freshness describes how current the shown data is.
func (m *PostListModel) freshness() string {
	if m.state.IsFetching() {
		return "refreshing"
	}
	return "updated " + humanize.Time(m.state.DataUpdatedAt)
}

func (m *PostListModel) renderPost(p post.Post, selected bool) string {
	if selected && m.focused {
		return SelectedStyle.Render("> " + p.Title)
	}
	return ItemStyle.Render("  " + p.Title)
}

// State returns the latest snapshot of the posts query.
func (m *PostListModel) State() query.State[[]post.Post] {
	return m.state
}

// Focus makes the cursor visible.
func (m *PostListModel) Focus() { m.focused = true }

// Blur hides the cursor.
func (m *PostListModel) Blur() { m.focused = false }

// Focused reports whether the list has focus.
func (m *PostListModel) Focused() bool { return m.focused }

// Close ends the subscription. A read still in flight with no other
// observers is cancelled.
func (m *PostListModel) Close() {
	if m.observer != nil {
		m.observer.Close()
	}
}
