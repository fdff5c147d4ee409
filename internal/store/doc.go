// Package store manages towlot's SQLite persistence: the vehicle registry,
// the append-only stage transition audit trail, and the durable notification
// outbox. Stage writes and their audit records are committed in a single
// transaction so the two can never diverge.
package store
