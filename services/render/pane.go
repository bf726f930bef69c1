package render

import (
	"strings"
	"sync"

	"webchat/pkg/logger"
)

// Op is the kind of change a pane pushes to subscribers
type Op string

const (
	OpAppend  Op = "append"
	OpReplace Op = "replace"

	// OpNotice carries the blocking connection notice; panes never emit it
	OpNotice Op = "notice"
)

// Update is one pane change as seen by a live view
type Update struct {
	Op   Op     `json:"op"`
	HTML string `json:"html"`
}

// Pane is the message container: an ordered list of HTML blocks plus a
// scroll position. Each block counts as one unit of height.
type Pane struct {
	mu           sync.Mutex
	blocks       []string
	scrollTop    int
	subs         map[int]chan Update
	nextSub      int
	subBufferLen int
}

func NewPane() *Pane {
	return &Pane{subs: make(map[int]chan Update), subBufferLen: 128}
}

// Append adds a rendered message and scrolls to the bottom
func (p *Pane) Append(f Fragment) {
	p.appendBlock(f.HTML())
}

func (p *Pane) appendBlock(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks = append(p.blocks, html)
	p.scrollTop = len(p.blocks)
	p.publish(Update{Op: OpAppend, HTML: html})
}

// Load replaces the contents with a batch of messages, appended in order,
// scrolling to the bottom after each. Subscribers see a single replace.
func (p *Pane) Load(frags []Fragment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks = make([]string, 0, len(frags))
	p.scrollTop = 0
	for _, f := range frags {
		p.blocks = append(p.blocks, f.HTML())
		p.scrollTop = len(p.blocks)
	}
	p.publish(Update{Op: OpReplace, HTML: strings.Join(p.blocks, "")})
}

// Clear empties the pane
func (p *Pane) Clear() {
	p.replace(nil)
}

// ShowLoading replaces the contents with a loading marker
func (p *Pane) ShowLoading(text string) {
	p.replace([]string{`<div class="loading">` + EscapeHTML(text) + `</div>`})
}

// ShowError replaces the contents with an inline error
func (p *Pane) ShowError(text string) {
	p.replace([]string{`<div class="error">` + EscapeHTML(text) + `</div>`})
}

func (p *Pane) replace(blocks []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks = blocks
	p.scrollTop = len(blocks)
	p.publish(Update{Op: OpReplace, HTML: strings.Join(blocks, "")})
}

// HTML is the full pane contents
func (p *Pane) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.blocks, "")
}

func (p *Pane) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.blocks)
}

// ScrollTop and ScrollHeight mirror the container's scroll geometry
func (p *Pane) ScrollTop() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollTop
}

func (p *Pane) ScrollHeight() int {
	return p.Len()
}

// AtBottom reports whether the pane is scrolled to its last block
func (p *Pane) AtBottom() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollTop == len(p.blocks)
}

// Subscribe returns the current contents, a channel of every later update
// and a cancel func. Both are taken under one lock, so nothing appended in
// between is lost. A subscriber that falls behind loses updates rather than
// blocking the pane.
func (p *Pane) Subscribe() (string, <-chan Update, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	ch := make(chan Update, p.subBufferLen)
	p.subs[id] = ch

	var once sync.Once
	return strings.Join(p.blocks, ""), ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if c, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(c)
			}
		})
	}
}

// publish must be called with p.mu held
func (p *Pane) publish(u Update) {
	for id, ch := range p.subs {
		select {
		case ch <- u:
		default:
			logger.WithField("subscriber", id).Warn("Pane subscriber buffer full, dropping update")
		}
	}
}
