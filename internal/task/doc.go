// Package task contains the orchestration engine: the bounded worker pool
// that drives each download task through its phases, the duplicate/retry/
// cancel semantics, and the notification path that keeps the progress bus
// and the durable snapshot in sync with every observable state change.
package task
