// Package services defines the shared error taxonomy for towlot components
// and hosts the external collaborator clients (push delivery, document
// generation, hearing schedules) in its subpackages.
package services
