// Package hearings resolves the next available administrative hearing slot
// for a jurisdiction from its configured weekly pattern.
package hearings
