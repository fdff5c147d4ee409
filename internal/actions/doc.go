// Package actions derives the outstanding workflow actions for a vehicle
// from its stage and deadlines. Derivation is a pure function of the vehicle
// row, the current time, and the configured thresholds; it never touches
// storage and never mutates its input.
package actions
