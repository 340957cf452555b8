package catalog

import (
	"context"
	"sync"
)

// Level of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient message about the outcome of a mutation.
type Notification struct {
	Level   Level
	Message string
}

// Notifier receives mutation outcomes. It is supplied by the caller of each
// operation.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Notifications collects notifications for one request.
type Notifications struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Notifier.
func (c *Notifications) Notify(_ context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// All returns the collected notifications in order.
func (c *Notifications) All() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

const (
	msgCreated      = "Product created successfully."
	msgCreateFailed = "Failed to create product."
	msgUpdated      = "Product updated successfully."
	msgUpdateFailed = "Failed to update product."
	msgDeleted      = "Product deleted successfully."
	msgDeleteFailed = "Failed to delete product."
)

func notify(ctx context.Context, n Notifier, level Level, msg string) {
	if n == nil {
		return
	}
	n.Notify(ctx, Notification{Level: level, Message: msg})
}
