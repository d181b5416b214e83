package models

import "time"

// HealthCheck reports each backing service as "healthy", "not configured" or
// "unhealthy: <reason>".
type HealthCheck struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
