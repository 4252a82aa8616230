package host

import "github.com/go-logr/logr"

// OwnershipViewer applies the host's ownership-map rule: an explicit entry for
// the user wins, then the "default" entry, and game masters own everything.
type OwnershipViewer struct {
	ID string
	GM bool
}

// UserID implements Viewer.
func (v OwnershipViewer) UserID() string { return v.ID }

// Permission implements Viewer.
func (v OwnershipViewer) Permission(actor *Actor) Permission {
	if actor == nil {
		return PermissionNone
	}
	if v.GM {
		return PermissionOwner
	}
	if p, ok := actor.Ownership[v.ID]; ok && p.Valid() {
		return p
	}
	if p, ok := actor.Ownership[DefaultOwnershipKey]; ok && p.Valid() {
		return p
	}
	return PermissionNone
}

// LogNotifier writes notifications to a logger. It stands in for the host's
// notification area when running headless.
type LogNotifier struct {
	Log logr.Logger
}

// Info implements Notifier.
func (n LogNotifier) Info(msg string) {
	n.Log.Info(msg, "notification", "info")
}

// Error implements Notifier.
func (n LogNotifier) Error(msg string) {
	n.Log.Error(nil, msg, "notification", "error")
}
