// Package executor runs the automated side of the workflow. Each cycle scans
// the fleet for due automated actions, re-derives per vehicle to avoid acting
// on stale data, and dispatches by action kind. A single vehicle's failure is
// counted and never aborts the rest of the cycle.
package executor
