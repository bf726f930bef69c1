package render

import "sync"

// Board is the non-message state of a user's screen: the blocking notice,
// the profile header and the contact panel.
type Board struct {
	mu       sync.RWMutex
	notice   string
	profile  Profile
	contacts Contacts
}

// Profile is the header display of the signed-in user
type Profile struct {
	Name    string
	Initial string
}

// NewProfile derives the avatar initial from the name
func NewProfile(name string) Profile {
	return Profile{Name: name, Initial: initial(name)}
}

// Contacts is the contact panel: a list, or an inline error in its place
type Contacts struct {
	Kind  string
	Items []Contact
	Error string
}

type Contact struct {
	ID   int64
	Name string
	Kind string
}

// Avatar is the first character of the contact's name
func (c Contact) Avatar() string {
	return initial(c.Name)
}

func NewBoard() *Board {
	return &Board{}
}

func (b *Board) SetNotice(text string) {
	b.mu.Lock()
	b.notice = text
	b.mu.Unlock()
}

func (b *Board) Notice() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.notice
}

func (b *Board) SetProfile(p Profile) {
	b.mu.Lock()
	b.profile = p
	b.mu.Unlock()
}

func (b *Board) Profile() Profile {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.profile
}

// SetContacts replaces the contact panel wholesale
func (b *Board) SetContacts(c Contacts) {
	b.mu.Lock()
	b.contacts = c
	b.mu.Unlock()
}

func (b *Board) Contacts() Contacts {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c := b.contacts
	c.Items = append([]Contact(nil), c.Items...)
	return c
}
