// Package outbox is the durable notification queue. Producers enqueue rows
// into SQLite and a periodic drain attempts delivery with a bounded
// retry-with-backoff. Once enqueued, a row is eventually sent, exhausted
// after three attempts, or removed by the retention sweep.
package outbox
