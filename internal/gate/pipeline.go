// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package gate

import "context"

// Verdict is the outcome of a step or a whole pipeline. A denied verdict
// names the step that vetoed and why.
type Verdict struct {
	Allowed bool
	Step    string
	Reason  string
}

// Pass lets evaluation continue with the next step.
func Pass() Verdict {
	return Verdict{Allowed: true}
}

// Deny vetoes the event. The pipeline fills in the step name.
func Deny(reason string) Verdict {
	return Verdict{Reason: reason}
}

// Step is one named check in a pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context) Verdict
}

// Pipeline is an ordered list of steps. The first denial wins and later steps
// never run.
type Pipeline []Step

// Run evaluates the steps in order.
func (p Pipeline) Run(ctx context.Context) Verdict {
	for _, s := range p {
		v := s.Run(ctx)
		if !v.Allowed {
			v.Step = s.Name
			return v
		}
	}
	return Pass()
}

// Names returns the step names in evaluation order.
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name
	}
	return names
}
