package chat

import (
	"webchat/pkg/logger"
	"webchat/pkg/metrics"
)

// Renderer draws a message that belongs to the active conversation
type Renderer interface {
	Render(msg DisplayMessage, kind Kind)
}

// Outcome is what the router did with an event
type Outcome string

const (
	OutcomeRendered Outcome = "rendered"
	OutcomeDropped  Outcome = "dropped"
	OutcomeIgnored  Outcome = "ignored"
)

// Router forwards inbound events for the active conversation to a Renderer
type Router struct {
	session Session
	state   *State
	users   *UserMap
	out     Renderer
	log     *logger.Logger
}

func NewRouter(session Session, state *State, users *UserMap, out Renderer) *Router {
	return &Router{
		session: session,
		state:   state,
		users:   users,
		out:     out,
		log:     logger.WithComponent("router").WithUserID(int64(session.UserID)),
	}
}

// Dispatch routes one decoded event
func (r *Router) Dispatch(ev Event) Outcome {
	active := r.state.Active()

	var (
		msg     WireMessage
		belongs bool
	)
	switch e := ev.(type) {
	case PrivateMessage:
		msg = e.Message
		belongs = BelongsPrivate(msg, active, r.session.UserID)
	case GroupMessage:
		msg = e.Message
		belongs = BelongsGroup(msg, active)
	default:
		r.log.Debug("ignoring frame with action %q", ev.Action())
		metrics.RecordRouterOutcome("other", string(OutcomeIgnored))
		return OutcomeIgnored
	}

	if !belongs {
		metrics.RecordRouterOutcome(ev.Action(), string(OutcomeDropped))
		return OutcomeDropped
	}

	r.out.Render(Normalize(msg, r.session, r.users), active.Kind)
	metrics.RecordRouterOutcome(ev.Action(), string(OutcomeRendered))
	return OutcomeRendered
}

// BelongsPrivate: the active chat is private and {sender, receiver} == {active.ID, self}
func BelongsPrivate(msg WireMessage, active Conversation, self ID) bool {
	if !active.Set || active.Kind != KindPrivate {
		return false
	}
	return (msg.SenderID == active.ID && msg.ReceiverID == self) ||
		(msg.SenderID == self && msg.ReceiverID == active.ID)
}

// BelongsGroup: the active chat is the group the message was sent to
func BelongsGroup(msg WireMessage, active Conversation) bool {
	return active.Set && active.Kind == KindGroup && msg.ReceiverID == active.ID
}
