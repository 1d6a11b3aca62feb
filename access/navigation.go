package access

import (
	"github.com/MrEthical07/goConsole/permission"
	"github.com/MrEthical07/goConsole/session"
)

// NavItem is an entry of the console navigation. An empty Permission means the
// entry is shown to every signed-in user.
type NavItem struct {
	ID         string
	Label      string
	Path       string
	Permission string
}

// VisibleItems returns the entries the user of sess may see, in input order.
// Nothing is visible without a session.
func VisibleItems(sess *session.Session, items []NavItem) []NavItem {
	if !IsAuthenticated(sess) {
		return nil
	}
	out := make([]NavItem, 0, len(items))
	for _, item := range items {
		if item.Permission == "" || HasPermission(sess, item.Permission) {
			out = append(out, item)
		}
	}
	return out
}

// DefaultNavigation is the stock console sidebar.
func DefaultNavigation() []NavItem {
	return []NavItem{
		{ID: "users", Label: "Users", Path: "/users", Permission: permission.UserRead},
		{ID: "units", Label: "Units", Path: "/units", Permission: permission.UnitRead},
		{ID: "profile", Label: "Profile", Path: "/profile"},
	}
}
