package handlers

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"webchat/server/middleware/auth"
	"webchat/services/chat"
	"webchat/services/client"
	"webchat/services/history"
	"webchat/services/render"
	"webchat/services/transport"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyAPI struct{}

func (emptyAPI) Users(ctx context.Context) ([]history.User, error) { return nil, nil }
func (emptyAPI) Groups(ctx context.Context, userID chat.ID) ([]history.Group, error) {
	return nil, nil
}
func (emptyAPI) Messages(ctx context.Context, req history.MessagesRequest) ([]chat.WireMessage, error) {
	return nil, nil
}
func (emptyAPI) UserInfo(ctx context.Context, id chat.ID) (*history.UserInfo, error) {
	return &history.UserInfo{}, nil
}
func (emptyAPI) CreateGroup(ctx context.Context, req history.CreateGroupRequest) error { return nil }

// capturedSocket hands the client's event handlers to the test
type capturedSocket struct {
	mu       sync.Mutex
	handlers transport.Handlers
}

func (s *capturedSocket) Connect()                  {}
func (s *capturedSocket) Send(payload any) bool     { return true }
func (s *capturedSocket) Close(ctx context.Context) {}
func (s *capturedSocket) State() transport.State    { return transport.StateConnected }

func (s *capturedSocket) deliver(ev chat.Event) {
	s.mu.Lock()
	h := s.handlers
	s.mu.Unlock()
	h.OnEvent(ev)
}

type noticeRenderer struct{}

func (noticeRenderer) RenderToSingleLine(name string, binding any) (string, error) {
	return `<div class="connection-error">` + binding.(fiber.Map)["Notice"].(string) + `</div>`, nil
}

func startViewServer(t *testing.T) (*client.Manager, *capturedSocket, string) {
	t.Helper()

	socket := &capturedSocket{}
	mgr := client.NewManager(func(session chat.Session) *client.Client {
		return client.New(session, emptyAPI{}, func(h transport.Handlers) client.Socket {
			socket.mu.Lock()
			socket.handlers = h
			socket.mu.Unlock()
			return socket
		}, 50)
	})

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.LocalUserID, chat.ID(1))
		return c.Next()
	})
	app.Get("/ws/view", HandleViewUpgrade(), HandleView(mgr, noticeRenderer{}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)

	t.Cleanup(func() {
		app.Shutdown()
		mgr.Close(context.Background())
	})
	return mgr, socket, "ws://" + ln.Addr().String() + "/ws/view"
}

func readUpdate(t *testing.T, conn *websocket.Conn) render.Update {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var u render.Update
	require.NoError(t, conn.ReadJSON(&u))
	return u
}

func TestViewSocketResyncsThenStreams(t *testing.T) {
	mgr, socket, url := startViewServer(t)

	cl, _ := mgr.Get(1)
	cl.State().Select(2, chat.KindPrivate, "bob")

	// arrives after the page was drawn but before the view socket opened
	socket.deliver(chat.PrivateMessage{Message: chat.WireMessage{SenderID: 2, ReceiverID: 1, SenderName: "bob", Content: "early"}})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readUpdate(t, conn)
	assert.Equal(t, render.OpReplace, first.Op)
	assert.Contains(t, first.HTML, "early")
	assert.Equal(t, cl.Pane().HTML(), first.HTML)

	socket.deliver(chat.PrivateMessage{Message: chat.WireMessage{SenderID: 2, ReceiverID: 1, SenderName: "bob", Content: "late"}})
	next := readUpdate(t, conn)
	assert.Equal(t, render.OpAppend, next.Op)
	assert.Contains(t, next.HTML, "late")
	assert.NotContains(t, next.HTML, "early")
}

func TestViewSocketPushesNotice(t *testing.T) {
	mgr, _, url := startViewServer(t)

	cl, _ := mgr.Get(1)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, render.OpReplace, readUpdate(t, conn).Op)

	cl.Board().SetNotice("无法连接到服务器，请刷新页面重试")
	u := readUpdate(t, conn)
	assert.Equal(t, render.OpNotice, u.Op)
	assert.Equal(t, `<div class="connection-error">无法连接到服务器，请刷新页面重试</div>`, u.HTML)
}
