// Command towlot is the CLI for the impound lifecycle workflow engine. It
// manages the vehicle registry, inspects priorities and the notification
// outbox, and runs the background daemon.
package main
