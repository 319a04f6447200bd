package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/postquery/internal/config"
	"github.com/rshade/postquery/internal/post"
	"github.com/rshade/postquery/internal/transport"
)

// fakeCollection is a minimal JSONPlaceholder posts endpoint.
type fakeCollection struct {
	mu       sync.Mutex
	posts    []post.Post
	created  []post.NewPost
	failGET  bool
	failPOST bool
	nextID   int
}

func (f *fakeCollection) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if f.failGET {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.posts)
	case http.MethodPost:
		if f.failPOST {
			http.Error(w, "rejected", http.StatusBadRequest)
			return
		}
		var p post.NewPost
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.created = append(f.created, p)
		f.nextID++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(post.Post{ID: 100 + f.nextID, Title: p.Title, Body: p.Body, UserID: p.UserID})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeCollection) createdPosts() []post.NewPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]post.NewPost(nil), f.created...)
}

func newFakeCollection(t *testing.T) (*fakeCollection, string) {
	t.Helper()
	fc := &fakeCollection{posts: []post.Post{
		{ID: 1, Title: "sunt aut facere", Body: "quia", UserID: 1},
		{ID: 2, Title: "qui est esse", Body: "est", UserID: 1},
	}}
	ts := httptest.NewServer(fc)
	t.Cleanup(ts.Close)
	return fc, ts.URL + "/posts"
}

// isolateEnv points HOME at an empty directory and clears POSTQUERY_* variables.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "POSTQUERY_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
	return home
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd("1.2.3")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestPostsList(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		isolateEnv(t)
		fc, endpoint := newFakeCollection(t)

		out, _, err := execute(t, "--endpoint", endpoint, "posts", "list", "--output", "json")
		require.NoError(t, err)

		var got []post.Post
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, fc.posts, got)
	})

	t.Run("table", func(t *testing.T) {
		isolateEnv(t)
		_, endpoint := newFakeCollection(t)

		out, _, err := execute(t, "--endpoint", endpoint, "posts", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "TITLE")
		assert.Contains(t, out, "sunt aut facere")
		assert.Contains(t, out, "2 posts")
		assert.Less(t, strings.Index(out, "sunt aut facere"), strings.Index(out, "qui est esse"))
	})

	t.Run("plain from environment default", func(t *testing.T) {
		isolateEnv(t)
		_, endpoint := newFakeCollection(t)
		t.Setenv("POSTQUERY_OUTPUT", "plain")
		t.Setenv("POSTQUERY_ENDPOINT", endpoint)

		out, _, err := execute(t, "posts", "list")
		require.NoError(t, err)
		assert.Equal(t, "sunt aut facere\nqui est esse\n", out)
	})

	t.Run("server error", func(t *testing.T) {
		isolateEnv(t)
		fc, endpoint := newFakeCollection(t)
		fc.failGET = true

		_, _, err := execute(t, "--endpoint", endpoint, "posts", "list")
		require.ErrorIs(t, err, transport.ErrUnexpectedStatus)
	})

	t.Run("unsupported format", func(t *testing.T) {
		isolateEnv(t)
		_, endpoint := newFakeCollection(t)

		_, _, err := execute(t, "--endpoint", endpoint, "posts", "list", "--output", "xml")
		require.ErrorIs(t, err, errUnsupportedFormat)
	})
}

func TestRootWithoutTerminalPrintsTitles(t *testing.T) {
	isolateEnv(t)
	_, endpoint := newFakeCollection(t)

	out, _, err := execute(t, "--endpoint", endpoint)
	require.NoError(t, err)
	assert.Equal(t, "sunt aut facere\nqui est esse\n", out)
}

func TestPostsCreate(t *testing.T) {
	t.Run("one request per title", func(t *testing.T) {
		isolateEnv(t)
		fc, endpoint := newFakeCollection(t)

		out, _, err := execute(t, "--endpoint", endpoint,
			"posts", "create", "--title", "Hello", "--title", "World", "--output", "json")
		require.NoError(t, err)

		assert.ElementsMatch(t, []post.NewPost{
			{Title: "Hello", Body: "Hello", UserID: 1},
			{Title: "World", Body: "World", UserID: 1},
		}, fc.createdPosts())

		var got []post.Post
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "Hello", got[0].Title)
		assert.Equal(t, "World", got[1].Title)
	})

	t.Run("same title twice creates twice", func(t *testing.T) {
		isolateEnv(t)
		fc, endpoint := newFakeCollection(t)

		_, _, err := execute(t, "--endpoint", endpoint, "posts", "create", "-t", "Hello", "-t", "Hello")
		require.NoError(t, err)
		assert.Len(t, fc.createdPosts(), 2)
	})

	t.Run("rejected create fails the command", func(t *testing.T) {
		isolateEnv(t)
		fc, endpoint := newFakeCollection(t)
		fc.failPOST = true

		_, _, err := execute(t, "--endpoint", endpoint, "posts", "create", "--title", "Hello")
		require.ErrorIs(t, err, transport.ErrUnexpectedStatus)
	})

	t.Run("title is required", func(t *testing.T) {
		isolateEnv(t)
		_, endpoint := newFakeCollection(t)

		_, _, err := execute(t, "--endpoint", endpoint, "posts", "create")
		require.Error(t, err)
	})
}

func TestPersistentFlags(t *testing.T) {
	t.Run("invalid endpoint", func(t *testing.T) {
		isolateEnv(t)
		_, _, err := execute(t, "--endpoint", "localhost/posts", "posts", "list")
		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("negative timeout", func(t *testing.T) {
		isolateEnv(t)
		_, _, err := execute(t, "--timeout=-1s", "posts", "list")
		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("debug with log file", func(t *testing.T) {
		isolateEnv(t)
		_, endpoint := newFakeCollection(t)
		logFile := filepath.Join(t.TempDir(), "postquery.log")
		t.Setenv("POSTQUERY_LOG_FILE", logFile)

		_, stderr, err := execute(t, "--debug", "--endpoint", endpoint, "posts", "list")
		require.NoError(t, err)
		assert.Contains(t, stderr, logFile)

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "posts loaded")
	})
}

func TestVersionCmd(t *testing.T) {
	isolateEnv(t)
	t.Setenv("POSTQUERY_ENDPOINT", "not a url")

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "postquery ")
}

func TestConfigCommands(t *testing.T) {
	t.Run("init writes defaults and refuses to overwrite", func(t *testing.T) {
		isolateEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")

		out, _, err := execute(t, "config", "init", "--path", path)
		require.NoError(t, err)
		assert.Contains(t, out, path)
		assert.FileExists(t, path)

		_, _, err = execute(t, "config", "init", "--path", path)
		require.Error(t, err)

		_, _, err = execute(t, "config", "init", "--path", path, "--force")
		require.NoError(t, err)
	})

	t.Run("init defaults to the home directory", func(t *testing.T) {
		home := isolateEnv(t)

		_, _, err := execute(t, "config", "init")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(home, config.DirName, config.FileName))
	})

	t.Run("validate verbose", func(t *testing.T) {
		isolateEnv(t)

		out, _, err := execute(t, "--endpoint", "http://localhost:3000/posts", "config", "validate", "-v")
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration is valid")
		assert.Contains(t, out, "http://localhost:3000/posts")
	})

	t.Run("show prints yaml", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv("POSTQUERY_STALE_TIME", "30s")

		out, _, err := execute(t, "config", "show")
		require.NoError(t, err)
		assert.Contains(t, out, "endpoint: "+transport.DefaultEndpoint)
		assert.Contains(t, out, "stale_time: 30s")
	})
}
