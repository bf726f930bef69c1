package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"webchat/config"
	"webchat/services/chat"
	"webchat/services/client"
	"webchat/services/history"
	"webchat/services/sessions"
	"webchat/services/transport"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type idleSocket struct{}

func (idleSocket) Connect()                  {}
func (idleSocket) Send(payload any) bool     { return true }
func (idleSocket) Close(ctx context.Context) {}
func (idleSocket) State() transport.State    { return transport.StateConnected }

type ServerSuite struct {
	suite.Suite
	backend *httptest.Server
	mgr     *client.Manager
	store   *sessions.MemoryStore
	srv     *Server
}

func (s *ServerSuite) SetupTest() {
	s.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/history/users":
			io.WriteString(w, `[{"user_id":1,"username":"alice"},{"user_id":"2","username":"bob"}]`)
		case "/history/user_info":
			io.WriteString(w, `{"username":"alice"}`)
		case "/history/groups":
			io.WriteString(w, `[{"group_id":9,"group_name":"团队"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	views, err := filepath.Abs("views")
	s.Require().NoError(err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:      "127.0.0.1",
			Port:      0,
			ViewsDir:  views,
			StaticDir: filepath.Join(views, "..", "..", "static"),
		},
		Backend: config.BackendConfig{
			BaseURL:        s.backend.URL,
			RequestTimeout: 2 * time.Second,
			PageSize:       50,
		},
		Socket:  config.SocketConfig{ReconnectDelay: time.Second, MaxAttempts: 5, WriteTimeout: time.Second},
		Session: config.SessionConfig{TTL: time.Hour, CookieName: "webchat_session"},
		Log:     config.LogConfig{File: "stdout", Level: "error"},
	}

	api := history.New(s.backend.URL, 2*time.Second)
	s.mgr = client.NewManager(func(session chat.Session) *client.Client {
		return client.New(session, api, func(h transport.Handlers) client.Socket {
			return idleSocket{}
		}, cfg.Backend.PageSize)
	})
	s.store = sessions.NewMemoryStore(time.Hour, 100)

	s.srv, err = NewServer(cfg, s.mgr, s.store, nil)
	s.Require().NoError(err)
}

func (s *ServerSuite) TearDownTest() {
	s.mgr.Close(context.Background())
	s.backend.Close()
}

func (s *ServerSuite) signIn(userID string) *http.Cookie {
	form := url.Values{"user_id": {userID}}
	req := httptest.NewRequest(http.MethodPost, "/init/sign_in", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)

	resp, err := s.srv.App.Test(req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusSeeOther, resp.StatusCode)
	s.Equal("/", resp.Header.Get("Location"))

	for _, c := range resp.Cookies() {
		if c.Name == "webchat_session" {
			return c
		}
	}
	s.FailNow("no session cookie")
	return nil
}

func (s *ServerSuite) TestUnauthenticatedRedirectsToSignIn() {
	resp, err := s.srv.App.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	s.Require().NoError(err)
	s.Equal(http.StatusFound, resp.StatusCode)
	s.Equal("/init/sign_in", resp.Header.Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req.Header.Set("HX-Request", "true")
	resp, err = s.srv.App.Test(req)
	s.Require().NoError(err)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("/init/sign_in", resp.Header.Get("HX-Redirect"))
}

func (s *ServerSuite) TestSignInRejectsBadUserID() {
	form := url.Values{"user_id": {"abc"}}
	req := httptest.NewRequest(http.MethodPost, "/init/sign_in", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)

	resp, err := s.srv.App.Test(req)
	s.Require().NoError(err)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(0, s.store.Len())
}

func (s *ServerSuite) TestChatPageAfterSignIn() {
	cookie := s.signIn("1")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	resp, err := s.srv.App.Test(req, 5000)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	s.Contains(page, `id="current-username">alice<`)
	s.Contains(page, "bob")
	s.NotContains(page, `<span class="name">alice</span>`)
	s.NotEmpty(resp.Header.Get("Content-Security-Policy"))

	s.Equal(1, s.mgr.Len())
}

func (s *ServerSuite) TestGroupContactsPartial() {
	cookie := s.signIn("1")

	req := httptest.NewRequest(http.MethodGet, "/contacts?type=group", nil)
	req.AddCookie(cookie)
	req.Header.Set("HX-Request", "true")
	resp, err := s.srv.App.Test(req, 5000)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	s.Contains(string(body), "团队")
	s.Contains(string(body), `data-kind="group"`)
}

func (s *ServerSuite) TestSendWithoutConversationIsRejected() {
	cookie := s.signIn("1")

	form := url.Values{"content": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	req.Header.Set("HX-Request", "true")
	req.AddCookie(cookie)

	resp, err := s.srv.App.Test(req, 5000)
	s.Require().NoError(err)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	s.Equal(`<div class="error">请先选择联系人或群聊</div>`, string(body))
}

func (s *ServerSuite) TestConversationHasSendErrorSlot() {
	cookie := s.signIn("1")

	form := url.Values{"id": {"2"}, "type": {"user"}}
	req := httptest.NewRequest(http.MethodPost, "/select", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	req.Header.Set("HX-Request", "true")
	req.AddCookie(cookie)

	resp, err := s.srv.App.Test(req, 5000)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	s.Contains(string(body), `class="composer"`)
	s.Contains(string(body), `id="send-error"`)
}

func (s *ServerSuite) TestStatusAPI() {
	cookie := s.signIn("1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.AddCookie(cookie)
	resp, err := s.srv.App.Test(req)
	s.Require().NoError(err)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	s.mgr.Get(1)
	resp, err = s.srv.App.Test(req)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var status map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&status))
	s.Equal(float64(1), status["user_id"])
	s.Equal("connected", status["socket"])
}

func (s *ServerSuite) TestLogoutClearsSession() {
	cookie := s.signIn("1")
	s.Equal(1, s.store.Len())

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	resp, err := s.srv.App.Test(req)
	s.Require().NoError(err)
	s.Equal(http.StatusSeeOther, resp.StatusCode)
	s.Equal("/init/sign_in", resp.Header.Get("Location"))

	got, err := s.store.Get(context.Background(), cookie.Value)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *ServerSuite) TestHealthAndMetrics() {
	resp, err := s.srv.App.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&health))
	s.Equal("healthy", health["status"])

	resp, err = s.srv.App.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func TestRenderToSingleLine(t *testing.T) {
	views, err := filepath.Abs("views")
	require.NoError(t, err)

	engine := newEngine(views)
	require.NoError(t, engine.Load())

	out, err := NewTemplateRenderer(engine).RenderToSingleLine("partials/notice", fiber.Map{"Notice": "无法连接"})
	require.NoError(t, err)
	assert.Equal(t, `<div class="connection-error">无法连接</div>`, out)

	out, err = NewTemplateRenderer(engine).RenderToSingleLine("partials/notice", fiber.Map{"Notice": ""})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestLiveAppendAlwaysScrollsToBottom(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "static", "js", "chat.js"))
	require.NoError(t, err)
	js := string(src)

	start := strings.Index(js, `update.op === "append"`)
	require.NotEqual(t, -1, start)
	end := strings.Index(js[start:], "} else if")
	require.NotEqual(t, -1, end)
	branch := js[start : start+end]

	assert.Contains(t, branch, "el.scrollTop = el.scrollHeight;")
	assert.NotContains(t, branch, "if (")
	assert.Contains(t, js, `getElementById("send-error")`)
}

func TestAccessLogPath(t *testing.T) {
	assert.Equal(t, "/var/log/webchat.access.log", accessLogPath("/var/log/webchat.log"))
	assert.Equal(t, "app.access", accessLogPath("app"))
}
