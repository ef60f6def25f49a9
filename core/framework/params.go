package framework

import (
	"log/slog"

	"github.com/codewandler/actr-go/core/endpoint"
	"github.com/codewandler/actr-go/core/metrics"
	"github.com/codewandler/actr-go/core/sched"
)

// DefaultWorkers is the initial worker target when Params.Workers is zero.
const DefaultWorkers = 16

// Params configures a framework. The zero value selects the defaults.
type Params struct {
	// Workers is the initial worker target. Zero selects DefaultWorkers;
	// a framework never runs with a zero target.
	Workers uint32
	// NodeMask restricts workers to the set NUMA nodes. Zero selects
	// node 0.
	NodeMask uint32
	// ProcessorMask restricts workers to processors within each selected
	// node. Zero selects all processors.
	ProcessorMask uint32
	// Yield selects the idle strategy for workers.
	Yield sched.YieldStrategy
	// Name identifies the framework. Empty generates one.
	Name string
	// Endpoint attaches the framework to a network endpoint. Optional.
	Endpoint *endpoint.Endpoint
	// Log receives runtime diagnostics. Defaults to slog.Default().
	Log *slog.Logger
	// Metrics receives runtime observations. Defaults to metrics.Nop().
	Metrics metrics.Runtime
}

// withDefaults fills unset fields.
func (p Params) withDefaults() Params {
	if p.Workers == 0 {
		p.Workers = DefaultWorkers
	}
	if p.NodeMask == 0 {
		p.NodeMask = 0x1
	}
	if p.ProcessorMask == 0 {
		p.ProcessorMask = ^uint32(0)
	}
	if p.Log == nil {
		p.Log = slog.Default()
	}
	if p.Metrics == nil {
		p.Metrics = metrics.Nop()
	}
	return p
}
