package session

import (
	"sync"
	"time"
)

// AlertType classifies a user-visible notification.
type AlertType string

const (
	AlertInfo    AlertType = "info"
	AlertSuccess AlertType = "success"
	AlertWarning AlertType = "warning"
	AlertError   AlertType = "error"
)

// Alert is a connection lifecycle notification for the hosting UI.
// OffersRestart marks teardowns after which start() may immediately be
// retried.
type Alert struct {
	Type          AlertType
	Message       string
	Dismissible   bool
	OffersRestart bool
}

// successDismissDelay is how long a success notice lingers before
// auto-dismissing.
const successDismissDelay = 5 * time.Second

// notifier holds the single current alert and pushes changes to the UI
// callback. A nil alert means "cleared".
type notifier struct {
	mu       sync.Mutex
	current  *Alert
	timer    *time.Timer
	onChange func(*Alert)
}

func newNotifier(onChange func(*Alert)) *notifier {
	return &notifier{onChange: onChange}
}

func (n *notifier) set(a *Alert) {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = a
	cb := n.onChange
	n.mu.Unlock()

	if cb != nil {
		cb(a)
	}
}

func (n *notifier) clear() {
	n.set(nil)
}

// dismissAfter clears the current alert after d, unless it was replaced or
// dismissed in the meantime.
func (n *notifier) dismissAfter(d time.Duration) {
	n.mu.Lock()
	a := n.current
	if a == nil {
		n.mu.Unlock()
		return
	}
	n.timer = time.AfterFunc(d, func() {
		n.mu.Lock()
		if n.current != a {
			n.mu.Unlock()
			return
		}
		n.current = nil
		n.timer = nil
		cb := n.onChange
		n.mu.Unlock()

		if cb != nil {
			cb(nil)
		}
	})
	n.mu.Unlock()
}

func (n *notifier) get() *Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
