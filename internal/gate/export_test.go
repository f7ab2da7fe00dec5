// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package gate

import "github.com/prometheus/client_golang/prometheus"

// VetoCounter exposes the veto counter for one event kind and step.
func VetoCounter(kind, step string) prometheus.Counter {
	return vetoes.WithLabelValues(kind, step)
}

// StepNames returns the step order the gate uses for ev.
func StepNames(g *Gate, ev any) []string {
	switch e := ev.(type) {
	case BreakEvent:
		return g.breakPipeline(e).Names()
	case FlowEvent:
		return g.flowPipeline(e).Names()
	case IgniteEvent:
		return g.ignitePipeline(e).Names()
	case PhysicsEvent:
		return g.physicsPipeline(e).Names()
	case InteractEvent:
		return g.interactPipeline(e).Names()
	case PlaceEvent:
		return g.placePipeline(e).Names()
	default:
		return nil
	}
}
