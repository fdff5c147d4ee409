// Package status owns vehicle stage transitions. Every stage mutation in the
// system flows through Manager.ApplyTransition, which validates the move
// against the lifecycle graph, computes the stage-specific derived fields,
// and persists the vehicle together with its audit record atomically.
package status
