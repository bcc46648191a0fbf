package stage

import (
	"context"
	"log/slog"
)

// Handler describes the contract the orchestrator needs from each pipeline
// stage.
type Handler interface {
	Prepare(context.Context, *Item) error
	Execute(context.Context, *Item) error
	HealthCheck(context.Context) Health
}

// LoggerAware lets the orchestrator hand stages an attempt-scoped logger
// before execution.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}

// Health is a stage's answer to HealthCheck: whether the stage could run an
// item right now, with Detail explaining a negative answer.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy reports a stage ready to run.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy reports a stage that cannot run, with the reason in Detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
