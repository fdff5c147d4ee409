// Package daemon assembles the workflow engine into a single background
// process: the registry store, the automated executor, the notification
// outbox, and the scheduler, with flock-based locking to prevent multiple
// instances working the same registry.
package daemon
