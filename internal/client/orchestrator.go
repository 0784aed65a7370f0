package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// State is a step of the link flow.
type State int

const (
	StateLoggedOut State = iota
	StateAwaitingProfileFetch
	StateEnterUsername
	StateAwaitConfirm
	StateLoggedIn
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAwaitingProfileFetch:
		return "awaiting_profile_fetch"
	case StateEnterUsername:
		return "enter_username"
	case StateAwaitConfirm:
		return "await_confirm"
	case StateLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned when another submission is still in flight.
	ErrBusy = errors.New("another request is in progress")
	// ErrWrongState is returned when an action does not apply to the current step.
	ErrWrongState = errors.New("action not available in current state")
)

// Message is a banner shown to the user. IsError selects error styling.
type Message struct {
	Text    string
	IsError bool
}

// View is a snapshot of everything a renderer needs.
type View struct {
	State    State
	Username string
	Code     string
	Profile  *UserData
	Message  Message
	Busy     bool
}

type linkAPI interface {
	UserData(ctx context.Context, token string) (*UserData, error)
	GenerateCode(ctx context.Context, token, username string) (string, string, error)
	VerifyUser(ctx context.Context, token, username, code string) (string, error)
}

// Orchestrator owns the session token and the view, moving through the link
// flow in response to sign-in events and user actions.
type Orchestrator struct {
	api      linkAPI
	ready    *Ready
	onChange func(View)

	mu    sync.Mutex
	token string
	epoch int // bumped on sign-in/out so stale responses are dropped
	view  View
}

// NewOrchestrator builds an orchestrator in StateLoggedOut. onChange, if set,
// receives a copy of the view after every transition.
func NewOrchestrator(api linkAPI, ready *Ready, onChange func(View)) *Orchestrator {
	return &Orchestrator{api: api, ready: ready, onChange: onChange}
}

// View returns a snapshot of the current view.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// SignedIn starts a session with token and loads the profile.
func (o *Orchestrator) SignedIn(ctx context.Context, token string) error {
	if err := o.ready.Wait(ctx); err != nil {
		return err
	}
	o.mu.Lock()
	o.epoch++
	o.token = token
	o.view = View{State: StateAwaitingProfileFetch}
	o.mu.Unlock()
	o.emit()
	return o.loadProfile(ctx, Message{})
}

// SignedOut drops the session. In-flight results are discarded.
func (o *Orchestrator) SignedOut() {
	o.mu.Lock()
	o.epoch++
	o.token = ""
	o.view = View{State: StateLoggedOut}
	o.mu.Unlock()
	o.emit()
}

// Refresh reloads the profile for the current session. It is refused while a
// submission is in flight; results of earlier calls are discarded.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	o.mu.Lock()
	if o.token == "" {
		o.mu.Unlock()
		return ErrWrongState
	}
	if o.view.Busy {
		o.mu.Unlock()
		return ErrBusy
	}
	o.epoch++
	o.view.State = StateAwaitingProfileFetch
	o.mu.Unlock()
	o.emit()
	return o.loadProfile(ctx, Message{})
}

// GenerateCode requests a code for username and moves to StateAwaitConfirm.
// It is allowed from StateAwaitConfirm too, which replaces the pending code.
func (o *Orchestrator) GenerateCode(ctx context.Context, username string) error {
	if err := o.ready.Wait(ctx); err != nil {
		return err
	}
	username = strings.TrimSpace(username)

	o.mu.Lock()
	if o.view.State != StateEnterUsername && o.view.State != StateAwaitConfirm {
		o.mu.Unlock()
		return ErrWrongState
	}
	if username == "" {
		o.view.Message = Message{Text: "Please enter your Roblox username.", IsError: true}
		o.mu.Unlock()
		o.emit()
		return nil
	}
	epoch, token, err := o.begin()
	o.mu.Unlock()
	if err != nil {
		return err
	}
	o.emit()

	code, msg, err := o.api.GenerateCode(ctx, token, username)

	o.mu.Lock()
	if !o.finish(epoch) {
		o.mu.Unlock()
		return nil
	}
	if err != nil {
		o.view.Message = failure(err, "Failed to generate code. Please try again.")
	} else {
		if msg == "" {
			msg = "Code generated successfully! Displayed username: " + username
		}
		o.view.State = StateAwaitConfirm
		o.view.Username = username
		o.view.Code = code
		o.view.Message = Message{Text: msg}
	}
	o.mu.Unlock()
	o.emit()
	return nil
}

// ConfirmVerification submits the displayed code. On success the profile is
// reloaded; on failure the flow goes back to StateEnterUsername keeping the username.
func (o *Orchestrator) ConfirmVerification(ctx context.Context) error {
	if err := o.ready.Wait(ctx); err != nil {
		return err
	}

	o.mu.Lock()
	if o.view.State != StateAwaitConfirm || o.view.Username == "" {
		o.view.Message = Message{Text: "Verification process requires restarting. Please go back to Step 1.", IsError: true}
		o.mu.Unlock()
		o.emit()
		return ErrWrongState
	}
	epoch, token, err := o.begin()
	username, code := o.view.Username, o.view.Code
	o.mu.Unlock()
	if err != nil {
		return err
	}
	o.emit()

	msg, err := o.api.VerifyUser(ctx, token, username, code)

	o.mu.Lock()
	if !o.finish(epoch) {
		o.mu.Unlock()
		return nil
	}
	if err != nil {
		o.view.State = StateEnterUsername
		o.view.Code = ""
		o.view.Message = failure(err, "Verification failed. Check your Roblox About section.")
		o.mu.Unlock()
		o.emit()
		return nil
	}
	o.view.State = StateAwaitingProfileFetch
	o.mu.Unlock()
	o.emit()

	if msg == "" {
		msg = "Roblox account verified."
	}
	return o.loadProfile(ctx, Message{Text: msg})
}

// loadProfile fetches user data and settles on StateLoggedIn or StateEnterUsername.
// A failed fetch lands on StateLoggedOut with the session kept for Refresh.
func (o *Orchestrator) loadProfile(ctx context.Context, onSuccess Message) error {
	o.mu.Lock()
	epoch, token := o.epoch, o.token
	o.mu.Unlock()

	ud, err := o.api.UserData(ctx, token)

	o.mu.Lock()
	if epoch != o.epoch {
		o.mu.Unlock()
		return nil
	}
	switch {
	case err == nil:
		o.view = View{State: StateLoggedIn, Profile: ud, Message: onSuccess}
	case errors.Is(err, ErrVerificationRequired):
		o.view = View{State: StateEnterUsername, Message: onSuccess}
	default:
		slog.Warn("profile fetch failed", "err", err)
		text := "Failed to load user data."
		if onSuccess.Text != "" {
			text = "Verification success, but failed to load user data."
		}
		o.view = View{State: StateLoggedOut, Message: Message{Text: text, IsError: true}}
	}
	o.mu.Unlock()
	o.emit()
	return nil
}

// begin marks a submission in flight. Caller holds o.mu.
func (o *Orchestrator) begin() (int, string, error) {
	if o.view.Busy {
		return 0, "", ErrBusy
	}
	o.view.Busy = true
	o.view.Message = Message{}
	return o.epoch, o.token, nil
}

// finish clears the in-flight flag and reports whether the result still
// belongs to the current session. Caller holds o.mu.
func (o *Orchestrator) finish(epoch int) bool {
	if epoch != o.epoch {
		return false
	}
	o.view.Busy = false
	return true
}

func (o *Orchestrator) emit() {
	if o.onChange != nil {
		o.onChange(o.View())
	}
}

func failure(err error, fallback string) Message {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return Message{Text: apiErr.Message, IsError: true}
	}
	slog.Warn("request failed", "err", err)
	return Message{Text: fallback, IsError: true}
}
