package health

import "context"

// HealthPinger is implemented by dependencies that can verify their own
// backing connection, such as the store pinging its database. A nil return
// means healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
