// Package screen is the screen flow controller: which of the four screens
// is visible and which events move between them.
package screen

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vadimtrunov/CineDeck/internal/core"
)

// State is a visible screen.
type State int

// Screens.
const (
	Login State = iota
	SignUp
	Home
	Details
)

func (s State) String() string {
	switch s {
	case Login:
		return "login"
	case SignUp:
		return "signup"
	case Home:
		return "home"
	case Details:
		return "details"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Event triggers a transition.
type Event int

// Events. Entering Details has no event; use Flow.Select.
const (
	SignUpRequested Event = iota
	BackToLogin
	SignUpSucceeded
	LoginSucceeded
	Logout
	Back
	selectItem
)

func (e Event) String() string {
	switch e {
	case SignUpRequested:
		return "signup_requested"
	case BackToLogin:
		return "back_to_login"
	case SignUpSucceeded:
		return "signup_succeeded"
	case LoginSucceeded:
		return "login_succeeded"
	case Logout:
		return "logout"
	case Back:
		return "back"
	case selectItem:
		return "select"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// ErrInvalidTransition is returned for an event the current screen does not accept.
var ErrInvalidTransition = errors.New("invalid screen transition")

type edge struct {
	from State
	on   Event
}

var transitions = map[edge]State{
	{Login, SignUpRequested}:  SignUp,
	{Login, LoginSucceeded}:   Home,
	{SignUp, BackToLogin}:     Login,
	{SignUp, SignUpSucceeded}: Login,
	{Home, Logout}:            Login,
	{Home, selectItem}:        Details,
	{Details, Back}:           Home,
}

// TransitionFunc observes a completed transition.
type TransitionFunc func(from, to State, ev Event)

// Flow is the screen state machine. The selected item is set exactly while
// the state is Details.
type Flow struct {
	mu       sync.RWMutex
	state    State
	selected *core.MediaItem
	hook     TransitionFunc
}

// New starts a flow on the login screen.
func New() *Flow {
	return &Flow{state: Login}
}

// OnTransition installs a hook called after each transition, outside the lock.
func (f *Flow) OnTransition(fn TransitionFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = fn
}

// State returns the visible screen.
func (f *Flow) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Selected returns the item shown on the details screen.
func (f *Flow) Selected() (core.MediaItem, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.selected == nil {
		return core.MediaItem{}, false
	}
	return *f.selected, true
}

// Fire applies an event. On ErrInvalidTransition the state is unchanged.
func (f *Flow) Fire(ev Event) (State, error) {
	if ev == selectItem {
		return f.State(), fmt.Errorf("%w: use Select to open details", ErrInvalidTransition)
	}
	return f.apply(ev, nil)
}

// Select opens the details screen for item. It is the only way to reach Details.
func (f *Flow) Select(item core.MediaItem) (State, error) {
	return f.apply(selectItem, &item)
}

func (f *Flow) apply(ev Event, item *core.MediaItem) (State, error) {
	f.mu.Lock()
	from := f.state
	to, ok := transitions[edge{from, ev}]
	if !ok {
		f.mu.Unlock()
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
	}
	f.state = to
	if to == Details {
		f.selected = item
	} else {
		f.selected = nil
	}
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(from, to, ev)
	}
	return to, nil
}
