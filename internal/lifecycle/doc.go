// Package lifecycle defines the legally-constrained disposition stages for
// impounded vehicles and the transition graph between them. It is pure
// decision logic with no I/O; persistence and side effects live elsewhere.
package lifecycle
