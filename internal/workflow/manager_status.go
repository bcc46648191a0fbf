package workflow

import (
	"context"

	"platen/internal/stage"
)

// Phase values reported by Status when no item is in flight. Any other phase
// value is the identifier of the item currently being processed.
const (
	PhaseIdle     = "idle"
	PhaseSweeping = "sweeping"
)

// StatusSummary represents lightweight monitor diagnostics.
type StatusSummary struct {
	Running     bool
	Phase       string
	LastError   string
	LastItem    *ItemResult
	StageHealth map[string]stage.Health
}

// Status returns the latest monitor information including per-stage health.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	phase := m.phase
	lastErr := m.lastErr
	lastResult := m.lastResult
	stages := m.stages
	m.mu.RUnlock()

	health := make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			continue
		}
		health[stg.name] = stg.handler.HealthCheck(ctx)
	}

	summary := StatusSummary{Running: running, Phase: phase, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastResult != nil {
		copied := *lastResult
		summary.LastItem = &copied
	}
	return summary
}
