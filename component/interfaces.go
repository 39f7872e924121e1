package component

import "context"

// HealthStatus is the coarse state a component reports.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's answer to a health probe.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is anything the runner starts before the session and stops after
// it: the API client, the redis connection, the session itself. Name must be
// unique within a Registry.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a component's line in the startup summary. An empty Name is
// filled from Component.Name; Details is free text such as "localhost:6379 db=0".
type Description struct {
	Name    string
	Type    string
	Details string
}

// Describable is implemented by components that want a summary line.
type Describable interface {
	Describe() Description
}
