package render

import (
	"strings"

	"webchat/services/chat"
)

// SelfLabel replaces the sender name on the user's own group messages
const SelfLabel = "我"

// Header is the avatar + sender line above a message
type Header struct {
	Avatar string
	Label  string
}

// Fragment is one rendered message, not yet escaped
type Fragment struct {
	Direction chat.Direction
	Header    *Header
	Content   string
}

// Build applies the header rules: group chats always get a header (self
// labelled SelfLabel), received messages always get one, and sent messages
// in a private chat get none.
func Build(msg chat.DisplayMessage, kind chat.Kind) Fragment {
	f := Fragment{Direction: msg.Direction, Content: msg.Content}

	group := kind == chat.KindGroup
	if group || msg.Direction == chat.DirectionReceived {
		label := msg.SenderName
		if group && msg.Direction == chat.DirectionSent {
			label = SelfLabel
		}
		f.Header = &Header{Avatar: initial(msg.SenderName), Label: label}
	}
	return f
}

// HTML renders the fragment. Every text value is escaped here, before it
// reaches a pane.
func (f Fragment) HTML() string {
	var b strings.Builder
	b.WriteString(`<div class="message `)
	b.WriteString(string(f.Direction))
	b.WriteString(`">`)
	if f.Header != nil {
		b.WriteString(`<div class="message-header"><div class="message-avatar">`)
		b.WriteString(EscapeHTML(f.Header.Avatar))
		b.WriteString(`</div><div class="message-sender">`)
		b.WriteString(EscapeHTML(f.Header.Label))
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`<div class="message-content">`)
	b.WriteString(EscapeHTML(f.Content))
	b.WriteString(`</div></div>`)
	return b.String()
}

// Text is the plain-terminal form used by the tail command
func (f Fragment) Text() string {
	if f.Header == nil {
		return "  " + f.Content
	}
	return "[" + f.Header.Label + "] " + f.Content
}

// Target receives fragments in display order
type Target interface {
	Append(f Fragment)
}

// Renderer adapts a Target to chat.Renderer
type Renderer struct {
	target Target
}

func NewRenderer(t Target) *Renderer {
	return &Renderer{target: t}
}

func (r *Renderer) Render(msg chat.DisplayMessage, kind chat.Kind) {
	r.target.Append(Build(msg, kind))
}

// initial is the first character of name, or "" for an empty name
func initial(name string) string {
	for _, r := range name {
		return string(r)
	}
	return ""
}
