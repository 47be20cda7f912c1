package liketoggle

import (
	"context"
	"sync"
)

// Event is the user action that triggered a toggle. Its default action
// (a full form submission) is always suppressed.
type Event interface {
	PreventDefault()
}

// Form is the like form wrapping the control; it names the message.
type Form interface {
	MessageID() string
}

// LikeForm is a Form with a fixed data-message-id.
type LikeForm struct {
	DataMessageID string
}

func (f LikeForm) MessageID() string { return f.DataMessageID }

// FailureFunc receives every failed toggle of a control.
type FailureFunc func(req Request, err error)

// ControlOption configures a Control.
type ControlOption func(*Control)

// OnFailure registers the callback run when a toggle fails.
func OnFailure(fn FailureFunc) ControlOption {
	return func(ctl *Control) {
		ctl.onFailure = fn
	}
}

// Control is one favorite button: its CSRF token, its icon, and the client it
// sends through. Controls never share state, so any number of them can live
// on one page.
type Control struct {
	client    *Client
	csrfToken string
	onFailure FailureFunc

	mu      sync.Mutex
	icon    *ClassList
	issued  uint64
	applied uint64
}

// NewControl binds a button's data-csrf token and icon to client. A nil icon
// starts as an outlined star.
func NewControl(client *Client, csrfToken string, icon *ClassList, opts ...ControlOption) *Control {
	if icon == nil {
		icon = ParseClassList(IconClasses(false))
	}
	ctl := &Control{client: client, csrfToken: csrfToken, icon: icon}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

// Handle runs one click. The icon only changes when the server answered;
// on failure it is left as it was and the error goes to the failure callback
// and the caller. When clicks overlap, a response older than one already
// applied is dropped.
func (ctl *Control) Handle(ctx context.Context, evt Event, form Form) error {
	evt.PreventDefault()

	req := Request{MessageID: form.MessageID(), CSRFToken: ctl.csrfToken}

	ctl.mu.Lock()
	ctl.issued++
	seq := ctl.issued
	ctl.mu.Unlock()

	res, err := ctl.client.Toggle(ctx, req)
	if err != nil {
		if ctl.onFailure != nil {
			ctl.onFailure(req, err)
		}
		return err
	}

	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if seq < ctl.applied {
		return nil
	}
	ctl.applied = seq
	ctl.icon.ApplyFavorited(res.Favorited)
	return nil
}

// IconClasses returns the current classes of the control's icon.
func (ctl *Control) IconClasses() []string {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.icon.Classes()
}
