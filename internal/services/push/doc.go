// Package push delivers notifications over a simple HTTP push endpoint
// (ntfy-style topics). The recipient names the topic under the configured
// base endpoint. When no endpoint is configured a noop sender is returned so
// the rest of the system runs without delivery.
package push
