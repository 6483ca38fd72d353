package ports

import "context"

// HealthChecker verifies a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
