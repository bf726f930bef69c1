package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a user or group id. The backend sends ids as JSON numbers or numeric strings.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("id %q is not an integer: %w", s, err)
		}
		*id = ID(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("id %s is not an integer: %w", data, err)
	}
	*id = ID(v)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Kind is the conversation type
type Kind string

const (
	KindPrivate Kind = "private"
	KindGroup   Kind = "group"
)

// ParseKind accepts the tab names used by the contact panel ("user" is the private tab)
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "private", "user":
		return KindPrivate, true
	case "group":
		return KindGroup, true
	}
	return "", false
}

// Direction is computed from ids, never read from the wire
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Session is the signed-in user
type Session struct {
	UserID ID
}

// Conversation identifies the displayed chat. Set is false until the user picks one.
type Conversation struct {
	ID   ID
	Kind Kind
	Set  bool
}

// WireMessage is the message body carried by inbound frames and history rows
type WireMessage struct {
	SenderID   ID     `json:"sender_id"`
	ReceiverID ID     `json:"receiver_id"`
	SenderName string `json:"sender_name,omitempty"`
	Content    string `json:"content"`
}

// DisplayMessage is what the renderer draws
type DisplayMessage struct {
	Direction  Direction
	SenderID   ID
	SenderName string
	Content    string
}

// Action tags
const (
	ActionLogin             = "login"
	ActionWebOnline         = "web_online"
	ActionSendMessage       = "send_message"
	ActionLogout            = "logout"
	ActionNewPrivateMessage = "new_private_message"
	ActionNewGroupMessage   = "new_group_message"
)

// Outbound frames

type PresenceFrame struct {
	Action string `json:"action"`
	UserID ID     `json:"user_id"`
}

func LoginFrame(userID ID) PresenceFrame {
	return PresenceFrame{Action: ActionLogin, UserID: userID}
}

func WebOnlineFrame(userID ID) PresenceFrame {
	return PresenceFrame{Action: ActionWebOnline, UserID: userID}
}

func LogoutFrame(userID ID) PresenceFrame {
	return PresenceFrame{Action: ActionLogout, UserID: userID}
}

type SendMessageFrame struct {
	Action       string `json:"action"`
	SenderID     ID     `json:"sender_id"`
	ReceiverType Kind   `json:"receiver_type"`
	ReceiverID   ID     `json:"receiver_id"`
	Content      string `json:"content"`
}

func NewSendMessageFrame(sender ID, to Conversation, content string) SendMessageFrame {
	return SendMessageFrame{
		Action:       ActionSendMessage,
		SenderID:     sender,
		ReceiverType: to.Kind,
		ReceiverID:   to.ID,
		Content:      content,
	}
}

// Event is the decoded form of an inbound frame. The concrete types are
// PrivateMessage, GroupMessage and Unknown.
type Event interface {
	Action() string
	event()
}

type PrivateMessage struct {
	Message WireMessage
}

type GroupMessage struct {
	Message WireMessage
}

// Unknown is any frame whose action this client does not handle
type Unknown struct {
	Tag string
}

func (PrivateMessage) Action() string { return ActionNewPrivateMessage }
func (GroupMessage) Action() string   { return ActionNewGroupMessage }
func (u Unknown) Action() string      { return u.Tag }

func (PrivateMessage) event() {}
func (GroupMessage) event()   {}
func (Unknown) event()        {}

type envelope struct {
	Action  string          `json:"action"`
	Message json.RawMessage `json:"message"`
}

// DecodeEvent parses one text frame. Frames that are not JSON objects, or
// message frames whose body does not decode, are errors; unrecognized actions
// decode to Unknown.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch env.Action {
	case ActionNewPrivateMessage, ActionNewGroupMessage:
		if len(env.Message) == 0 || bytes.Equal(env.Message, []byte("null")) {
			return nil, fmt.Errorf("decode %s: missing message body", env.Action)
		}
		var msg WireMessage
		if err := json.Unmarshal(env.Message, &msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Action, err)
		}
		if env.Action == ActionNewPrivateMessage {
			return PrivateMessage{Message: msg}, nil
		}
		return GroupMessage{Message: msg}, nil
	default:
		return Unknown{Tag: env.Action}, nil
	}
}
