package handlers

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/ahmetcoskunkizilkaya/user-registry/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ready(ctx context.Context) error
}

type HealthHandler struct {
	store     Pinger
	env       string
	startedAt time.Time
}

func NewHealthHandler(store Pinger, env string) *HealthHandler {
	return &HealthHandler{store: store, env: env, startedAt: time.Now()}
}

// Check returns the full health document; 503 when the store is down.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := dto.HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startedAt).Seconds(),
		Database:    "connected",
		Environment: h.env,
		Memory: dto.MemoryStatus{
			HeapAlloc: mem.HeapAlloc,
			HeapSys:   mem.HeapSys,
			Sys:       mem.Sys,
		},
	}

	if err := h.store.Ready(c.UserContext()); err != nil {
		slog.Warn("health check: store unreachable", "error", err.Error())
		resp.Status = "degraded"
		resp.Database = "disconnected"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

// Ready answers 200 only when the store answers a ping.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if err := h.store.Ready(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ReadinessResponse{
			Status: "not ready",
			Reason: "database not connected",
		})
	}
	return c.JSON(dto.ReadinessResponse{Status: "ready"})
}

// Live never touches the store.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.LivenessResponse{Status: "alive"})
}
