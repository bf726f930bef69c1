package client

import (
	"context"
	"errors"
	"sync"

	"webchat/apperrors"
	"webchat/pkg/logger"
	"webchat/services/chat"
	"webchat/services/history"
	"webchat/services/render"
	"webchat/services/transport"
	"webchat/utils"

	"github.com/google/uuid"
)

const (
	LoadingMessagesText = "加载消息中..."
	NetworkErrorText    = "网络错误"
)

// API is the backend's REST surface
type API interface {
	Users(ctx context.Context) ([]history.User, error)
	Groups(ctx context.Context, userID chat.ID) ([]history.Group, error)
	Messages(ctx context.Context, req history.MessagesRequest) ([]chat.WireMessage, error)
	UserInfo(ctx context.Context, id chat.ID) (*history.UserInfo, error)
	CreateGroup(ctx context.Context, req history.CreateGroupRequest) error
}

// Socket is the persistent connection to the backend
type Socket interface {
	Connect()
	Send(payload any) bool
	Close(ctx context.Context)
	State() transport.State
}

// SocketFactory builds a Socket that reports to h
type SocketFactory func(h transport.Handlers) Socket

// Client is one signed-in user's chat: socket, conversation state, router,
// message pane and the loaders feeding them.
type Client struct {
	ID       string
	session  chat.Session
	api      API
	socket   Socket
	state    *chat.State
	users    *chat.UserMap
	router   *chat.Router
	pane     *render.Pane
	board    *render.Board
	pageSize int
	log      *logger.Logger

	// viewMu orders pane writes (history and live messages) against
	// selection changes
	viewMu sync.Mutex
}

func New(session chat.Session, api API, newSocket SocketFactory, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = 50
	}

	c := &Client{
		ID:       uuid.New().String(),
		session:  session,
		api:      api,
		state:    chat.NewState(),
		users:    chat.NewUserMap(),
		pane:     render.NewPane(),
		board:    render.NewBoard(),
		pageSize: pageSize,
	}
	c.log = logger.WithComponent("client").WithUserID(int64(session.UserID)).WithField("client_id", c.ID)
	c.router = chat.NewRouter(session, c.state, c.users, render.NewRenderer(c.pane))
	c.socket = newSocket(transport.Handlers{
		OnEvent: func(ev chat.Event) {
			// a selection change cannot land between the router's read of
			// the active conversation and its write to the pane
			c.viewMu.Lock()
			defer c.viewMu.Unlock()
			c.router.Dispatch(ev)
		},
		OnExhausted: func(notice *apperrors.AppError) {
			c.board.SetNotice(notice.Message)
		},
	})
	return c
}

func (c *Client) Session() chat.Session { return c.session }
func (c *Client) Pane() *render.Pane    { return c.pane }
func (c *Client) Board() *render.Board  { return c.board }
func (c *Client) State() *chat.State    { return c.state }

// Connect opens the socket in the background
func (c *Client) Connect() {
	c.socket.Connect()
}

func (c *Client) SocketState() transport.State {
	return c.socket.State()
}

// Bootstrap runs the initial loads concurrently. A failure in one never
// blocks the others; failures are returned joined.
func (c *Client) Bootstrap(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	run(func(ctx context.Context) error { return c.LoadContacts(ctx, chat.KindPrivate) })
	run(c.LoadMessages)
	run(c.LoadUserInfo)
	wg.Wait()

	return errors.Join(errs...)
}

// LoadContacts replaces the contact panel with the private or group list.
// Private lists refresh the UserMap and leave out the session user.
func (c *Client) LoadContacts(ctx context.Context, kind chat.Kind) error {
	panel := render.Contacts{Kind: string(kind)}

	switch kind {
	case chat.KindGroup:
		groups, err := c.api.Groups(ctx, c.session.UserID)
		if err != nil {
			panel.Error = displayError(err)
			c.board.SetContacts(panel)
			return err
		}
		for _, g := range groups {
			panel.Items = append(panel.Items, render.Contact{ID: int64(g.GroupID), Name: g.GroupName, Kind: string(chat.KindGroup)})
		}
	default:
		users, err := c.api.Users(ctx)
		if err != nil {
			panel.Error = displayError(err)
			c.board.SetContacts(panel)
			return err
		}
		panel.Items = c.contactsFromUsers(users)
	}

	c.board.SetContacts(panel)
	c.log.WithFields(map[string]any{"kind": kind, "count": len(panel.Items)}).Debug("contacts loaded")
	return nil
}

// LoadAllUsers is the member picker list for group creation
func (c *Client) LoadAllUsers(ctx context.Context) ([]render.Contact, error) {
	users, err := c.api.Users(ctx)
	if err != nil {
		return nil, err
	}
	return c.contactsFromUsers(users), nil
}

func (c *Client) contactsFromUsers(users []history.User) []render.Contact {
	items := make([]render.Contact, 0, len(users))
	for _, u := range users {
		c.users.Put(u.UserID, u.Username)
		if u.UserID == c.session.UserID {
			continue
		}
		items = append(items, render.Contact{ID: int64(u.UserID), Name: u.Username, Kind: string(chat.KindPrivate)})
	}
	return items
}

// LoadMessages fetches the first history page of the active conversation and
// replaces the pane with it, oldest first. With nothing selected the pane is
// cleared and no request is made. A response that arrives after the
// selection changed is discarded.
func (c *Client) LoadMessages(ctx context.Context) error {
	c.viewMu.Lock()
	conv, gen := c.state.Snapshot()
	if !conv.Set {
		c.pane.Clear()
		c.viewMu.Unlock()
		return nil
	}
	c.pane.ShowLoading(LoadingMessagesText)
	c.viewMu.Unlock()

	msgs, err := c.api.Messages(ctx, history.MessagesRequest{
		UserID:   c.session.UserID,
		ChatID:   conv.ID,
		Type:     conv.Kind,
		Page:     1,
		PageSize: c.pageSize,
	})

	c.viewMu.Lock()
	defer c.viewMu.Unlock()

	if !c.state.Current(gen) {
		c.log.WithField("chat_id", conv.ID).Debug("discarding history for inactive conversation")
		return nil
	}
	if err != nil {
		c.pane.ShowError(displayError(err))
		return err
	}

	frags := make([]render.Fragment, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		frags = append(frags, render.Build(chat.Normalize(msgs[i], c.session, c.users), conv.Kind))
	}
	c.pane.Load(frags)
	return nil
}

// LoadUserInfo fills the profile header. Failures leave it untouched.
func (c *Client) LoadUserInfo(ctx context.Context) error {
	info, err := c.api.UserInfo(ctx, c.session.UserID)
	if err != nil {
		c.log.WithError(err).Warn("user info not loaded")
		return err
	}
	c.board.SetProfile(render.NewProfile(info.Username))
	return nil
}

// Select makes (id, kind) the active conversation, titles it from the
// contact panel and loads its history.
func (c *Client) Select(ctx context.Context, id chat.ID, kind chat.Kind) error {
	c.viewMu.Lock()
	c.state.Select(id, kind, c.titleFor(id, kind))
	c.viewMu.Unlock()

	return c.LoadMessages(ctx)
}

func (c *Client) titleFor(id chat.ID, kind chat.Kind) string {
	for _, item := range c.board.Contacts().Items {
		if item.ID == int64(id) && item.Kind == string(kind) {
			return item.Name
		}
	}
	if kind == chat.KindPrivate {
		return c.users.ResolveName(id, "")
	}
	return id.String()
}

// SendMessage sends trimmed content to the active conversation. Nothing is
// drawn locally; the server echoes the message back over the socket.
func (c *Client) SendMessage(content string) error {
	text, verr := utils.NormalizeMessage(content)
	if verr != nil {
		return verr
	}

	conv := c.state.Active()
	if !conv.Set {
		return apperrors.NewNoConversation()
	}

	if !c.socket.Send(chat.NewSendMessageFrame(c.session.UserID, conv, text)) {
		return apperrors.NewSocketClosedError("send_message", nil)
	}
	return nil
}

// CreateGroup validates locally, then asks the backend to create the group
// and reloads the group list once on success.
func (c *Client) CreateGroup(ctx context.Context, name string, members []chat.ID) error {
	groupName, verr := utils.ValidateGroupName(name)
	if verr != nil {
		return verr
	}
	ids, verr := utils.ValidateMembers(members)
	if verr != nil {
		return verr
	}

	err := c.api.CreateGroup(ctx, history.CreateGroupRequest{
		CreatorID: c.session.UserID,
		GroupName: groupName,
		Members:   ids,
	})
	if err != nil {
		return err
	}

	c.log.WithFields(map[string]any{"group_name": groupName, "members": len(ids)}).Info("group created")

	// the group exists either way; a failed reload shows in the panel
	if err := c.LoadContacts(ctx, chat.KindGroup); err != nil {
		c.log.WithError(err).Warn("group list not reloaded after create")
	}
	return nil
}

// Close announces logout and shuts the socket
func (c *Client) Close(ctx context.Context) {
	c.socket.Close(ctx)
}

// displayError is the inline text shown in place of a list or the pane
func displayError(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrCodeRequestFailed, apperrors.ErrCodeNetwork:
			return appErr.Message
		}
	}
	return NetworkErrorText
}
