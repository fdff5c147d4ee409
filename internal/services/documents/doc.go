// Package documents generates compliance form artifacts for vehicles. The
// file generator writes plain-text forms into the configured documents
// directory and returns the artifact path for the caller to record.
package documents
