package reminder

import (
	"context"
	"fmt"
)

// Route sends pushes for the user IDs Match accepts. A nil Match accepts all.
type Route struct {
	Name     string
	Match    func(userID string) bool
	Notifier Notifier
}

// Router picks the gateway per user, so one roster can mix channels.
// Routes are tried in order.
type Router []Route

func (r Router) Push(ctx context.Context, userID, text string) error {
	for _, route := range r {
		if route.Match == nil || route.Match(userID) {
			if err := route.Notifier.Push(ctx, userID, text); err != nil {
				return fmt.Errorf("%s: %w", route.Name, err)
			}
			return nil
		}
	}
	return fmt.Errorf("no gateway for user %q", userID)
}
