package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"
)

// Pinger is any dependency with a liveness check.
type Pinger interface {
	Healthy(ctx context.Context) error
}

type dbPinger struct{ db *sql.DB }

func (p dbPinger) Healthy(ctx context.Context) error { return p.db.PingContext(ctx) }

// BrokerStatus reports whether the broker connection is still open.
type BrokerStatus interface {
	Healthy() bool
}

type HealthHandler struct {
	DB        *sql.DB
	Broker    BrokerStatus
	Cache     Pinger
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewHealthHandler accepts nil for dependencies that are not configured.
func NewHealthHandler(db *sql.DB, broker BrokerStatus, cache Pinger) *HealthHandler {
	return &HealthHandler{
		DB:        db,
		Broker:    broker,
		Cache:     cache,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)

	if h.DB != nil {
		deps["database"] = check(ctx, dbPinger{h.DB})
	} else {
		deps["database"] = "not configured"
	}

	switch {
	case h.Broker == nil:
		deps["rabbitmq"] = "not configured"
	case h.Broker.Healthy():
		deps["rabbitmq"] = "healthy"
	default:
		deps["rabbitmq"] = "unhealthy: connection closed"
	}

	if h.Cache != nil {
		deps["redis"] = check(ctx, h.Cache)
	} else {
		deps["redis"] = "not configured"
	}

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      "1.0.0",
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}

func check(ctx context.Context, p Pinger) string {
	if err := p.Healthy(ctx); err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	return "healthy"
}
