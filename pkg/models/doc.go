// Package models defines the value types shared between the planner, the
// workers and the orchestrator: worker status and results, the shared
// context, task plans and response envelopes.
package models
