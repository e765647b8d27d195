package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/collections-app/internal/auth"
	"github.com/ayush/collections-app/internal/collections"
	"github.com/ayush/collections-app/internal/session"
	"github.com/ayush/collections-app/internal/store"
)

type testApp struct {
	srv      *httptest.Server
	client   *http.Client
	mem      *store.MemoryStore
	sessions *session.MemoryStore
}

// testOptions swaps in fakes around the shared in-memory stores.
type testOptions struct {
	repo     func(*store.MemoryStore) collections.Repository
	users    func(*store.MemoryStore) auth.UserStore
	sessions func(*session.MemoryStore) session.Store
}

func newTestApp(t *testing.T, repo collections.Repository) *testApp {
	t.Helper()
	var opts testOptions
	if repo != nil {
		opts.repo = func(*store.MemoryStore) collections.Repository { return repo }
	}
	return newTestAppWith(t, opts)
}

func newTestAppWith(t *testing.T, opts testOptions) *testApp {
	t.Helper()
	mem := store.NewMemoryStore()
	sessStore := session.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	var (
		repo     collections.Repository = mem
		users    auth.UserStore         = mem
		sessions session.Store          = sessStore
	)
	if opts.repo != nil {
		repo = opts.repo(mem)
	}
	if opts.users != nil {
		users = opts.users(mem)
	}
	if opts.sessions != nil {
		sessions = opts.sessions(sessStore)
	}

	h, err := NewRouter(Deps{
		Users:       users,
		Collections: repo,
		Health:      mem,
		Hasher:      auth.NewHasher(bcrypt.MinCost),
		Sessions:    session.NewManager(sessions, "", false, log),
		Logger:      log,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testApp{srv: srv, client: client, mem: mem, sessions: sessStore}
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	res, err := a.client.Get(a.srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	res, err := a.client.PostForm(a.srv.URL+path, form)
	require.NoError(t, err)
	res.Body.Close()
	return res
}

// expectRedirect asserts a 302 to target and returns the body of the page
// it points at, where flashes are rendered.
func (a *testApp) expectRedirect(t *testing.T, res *http.Response, target string) string {
	t.Helper()
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.Equal(t, target, res.Header.Get("Location"))
	_, body := a.get(t, target)
	return body
}

// postFrom posts form with a Referer on this server, as a browser would
// from the page at referer.
func (a *testApp) postFrom(t *testing.T, path, referer string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", a.srv.URL+referer)
	res, err := a.client.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	return res
}

func (a *testApp) currentSession(t *testing.T) *session.Session {
	t.Helper()
	u, err := url.Parse(a.srv.URL)
	require.NoError(t, err)
	for _, c := range a.client.Jar.Cookies(u) {
		if c.Name == session.DefaultCookie {
			s, err := a.sessions.Get(context.Background(), c.Value)
			require.NoError(t, err)
			return s
		}
	}
	return nil
}

func (a *testApp) register(t *testing.T, username, email, password string) *http.Response {
	t.Helper()
	return a.post(t, "/register", url.Values{"username": {username}, "email": {email}, "password": {password}})
}

func (a *testApp) login(t *testing.T, email, password string) *http.Response {
	t.Helper()
	return a.post(t, "/login", url.Values{"email": {email}, "password": {password}})
}

func TestRegisterThenLogin(t *testing.T) {
	a := newTestApp(t, nil)

	body := a.expectRedirect(t, a.register(t, "a", "a@x.com", "p"), "/login")
	assert.Contains(t, body, "Register Successful!")

	body = a.expectRedirect(t, a.login(t, "a@x.com", "p"), "/")
	assert.Contains(t, body, "Login Successful!")

	user, err := a.mem.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	sess := a.currentSession(t)
	require.NotNil(t, sess)
	assert.True(t, sess.IsLogin)
	assert.Equal(t, session.User{ID: user.ID, Username: "a", Email: "a@x.com"}, sess.User)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	a := newTestApp(t, nil)
	a.expectRedirect(t, a.register(t, "a", "a@x.com", "p"), "/login")

	body := a.expectRedirect(t, a.register(t, "b", "a@x.com", "q"), "/register")
	assert.Contains(t, body, "Sorry, your account already exists")
	assert.Equal(t, 1, a.mem.UserCount())
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		form url.Values
		want string
	}{
		{url.Values{"email": {"a@x.com"}, "password": {"p"}}, "Please input username !!!"},
		{url.Values{"username": {"a"}, "password": {"p"}}, "Please input email !!!"},
		{url.Values{"username": {"a"}, "email": {"a@x.com"}}, "Please input password !!!"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			a := newTestApp(t, nil)
			body := a.expectRedirect(t, a.post(t, "/register", tc.form), "/register")
			assert.Contains(t, body, tc.want)
			assert.Equal(t, 0, a.mem.UserCount())
		})
	}
}

func TestLoginFailures(t *testing.T) {
	a := newTestApp(t, nil)
	a.expectRedirect(t, a.register(t, "a", "a@x.com", "p"), "/login")

	body := a.expectRedirect(t, a.login(t, "nobody@x.com", "p"), "/login")
	assert.Contains(t, body, "Login Failed: Email is wrong!")

	body = a.expectRedirect(t, a.login(t, "a@x.com", "wrong"), "/login")
	assert.Contains(t, body, "Login Failed: Password is wrong!")

	sess := a.currentSession(t)
	require.NotNil(t, sess, "flashes create an anonymous session")
	assert.False(t, sess.IsLogin)
}

func TestLoginRotatesToken(t *testing.T) {
	a := newTestApp(t, nil)
	a.expectRedirect(t, a.register(t, "a", "a@x.com", "p"), "/login")
	before := a.currentSession(t)
	require.NotNil(t, before)

	a.expectRedirect(t, a.login(t, "a@x.com", "p"), "/")
	after := a.currentSession(t)
	require.NotNil(t, after)
	assert.NotEqual(t, before.Token, after.Token)

	old, err := a.sessions.Get(context.Background(), before.Token)
	require.NoError(t, err)
	assert.Nil(t, old)
}

// noRepo panics on any call, proving the guard stops the request first.
type noRepo struct {
	collections.Repository
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	a := newTestApp(t, noRepo{})

	routes := []struct{ method, path string }{
		{http.MethodGet, "/collections"},
		{http.MethodGet, "/add-collections"},
		{http.MethodPost, "/add-collections"},
		{http.MethodPost, "/delete-collections/1"},
		{http.MethodGet, "/collections-details/1"},
		{http.MethodGet, "/collections-details/add-task/1"},
		{http.MethodPost, "/collections-details/add-task/1"},
		{http.MethodPost, "/task-delete/1"},
		{http.MethodPost, "/update-task/1"},
		{http.MethodGet, "/logout"},
	}
	for _, rt := range routes {
		req, err := http.NewRequest(rt.method, a.srv.URL+rt.path, nil)
		require.NoError(t, err)
		res, err := a.client.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusFound, res.StatusCode, rt.path)
		assert.Equal(t, "/login", res.Header.Get("Location"), rt.path)
	}

	_, body := a.get(t, "/login")
	assert.Contains(t, body, "You must be logged in to view this page.")
}

func TestEndToEnd(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()

	a.expectRedirect(t, a.register(t, "a", "a@x.com", "p"), "/login")
	a.expectRedirect(t, a.login(t, "a@x.com", "p"), "/")
	user, err := a.mem.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)

	body := a.expectRedirect(t, a.post(t, "/add-collections", url.Values{"collectionname": {""}}), "/add-collections")
	assert.Contains(t, body, "Please input collection name !!!")

	a.expectRedirect(t, a.post(t, "/add-collections", url.Values{"collectionname": {"Work"}}), "/collections")
	cols, err := a.mem.ListCollections(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	colID := cols[0].ID
	detail := fmt.Sprintf("/collections-details/%d", colID)

	res := a.post(t, fmt.Sprintf("/collections-details/add-task/%d", colID), url.Values{"tasksname": {"Write report"}})
	a.expectRedirect(t, res, detail)

	tasks, err := a.mem.ListTasks(ctx, colID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	taskID := tasks[0].ID

	body = a.expectRedirect(t, a.post(t, fmt.Sprintf("/update-task/%d", taskID), url.Values{"is_done": {"on"}}), detail)
	assert.Contains(t, body, "Task updated successfully.")
	assert.Contains(t, body, "1/1 done")

	d, err := collections.NewService(a.mem).Detail(ctx, user.ID, colID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.CompletedTasks)
	assert.Len(t, d.Tasks, 1)

	// unchecked box is absent from the form
	a.expectRedirect(t, a.post(t, fmt.Sprintf("/update-task/%d", taskID), url.Values{}), detail)
	_, body = a.get(t, "/collections")
	assert.Contains(t, body, "Work")
	assert.Contains(t, body, "0/1 done")

	body = a.expectRedirect(t, a.post(t, fmt.Sprintf("/task-delete/%d", taskID), nil), detail)
	assert.Contains(t, body, "Task deleted successfully.")

	body = a.expectRedirect(t, a.post(t, fmt.Sprintf("/task-delete/%d", taskID), nil), "/collections")
	assert.Contains(t, body, "Task not found.")

	body = a.expectRedirect(t, a.post(t, fmt.Sprintf("/delete-collections/%d", colID), nil), "/collections")
	assert.Contains(t, body, "Collection deleted successfully.")

	res, _ = a.get(t, detail)
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/collections", res.Header.Get("Location"))

	res, _ = a.get(t, "/logout")
	a.expectRedirect(t, res, "/")
	res, _ = a.get(t, "/collections")
	assert.Equal(t, "/login", res.Header.Get("Location"))
}

func TestAddTaskEmptyNameRedirectsBack(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()
	a.expectRedirect(t, a.register(t, "a", "a@x.com", "p"), "/login")
	a.expectRedirect(t, a.login(t, "a@x.com", "p"), "/")
	user, err := a.mem.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	col, err := a.mem.CreateCollection(ctx, user.ID, "Home")
	require.NoError(t, err)

	form := fmt.Sprintf("/collections-details/add-task/%d", col.ID)
	res := a.postFrom(t, form, form, url.Values{"tasksname": {""}})
	body := a.expectRedirect(t, res, form)
	assert.Contains(t, body, "Please input task name !!!")
}

func TestForeignCollectionIsHidden(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()

	owner, err := a.mem.CreateUser(ctx, "owner", "owner@x.com", "unused")
	require.NoError(t, err)
	col, err := a.mem.CreateCollection(ctx, owner.ID, "Private")
	require.NoError(t, err)
	task, err := a.mem.CreateTask(ctx, col.ID, "secret")
	require.NoError(t, err)

	a.expectRedirect(t, a.register(t, "b", "b@x.com", "p"), "/login")
	a.expectRedirect(t, a.login(t, "b@x.com", "p"), "/")

	res, _ := a.get(t, fmt.Sprintf("/collections-details/%d", col.ID))
	assert.Equal(t, "/collections", res.Header.Get("Location"))

	body := a.expectRedirect(t, a.post(t, fmt.Sprintf("/update-task/%d", task.ID), url.Values{"is_done": {"on"}}), "/collections")
	assert.Contains(t, body, "Task not found.")

	owned, err := a.mem.GetTaskOwner(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, owned.UserID)
	tasks, err := a.mem.ListTasks(ctx, col.ID)
	require.NoError(t, err)
	assert.False(t, tasks[0].Done)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("down") }

func TestHealth(t *testing.T) {
	a := newTestApp(t, nil)
	res, body := a.get(t, "/health")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	rec := httptest.NewRecorder()
	health(downPinger{})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t, nil)
	a.get(t, "/")
	res, body := a.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "http_requests_total")
}
