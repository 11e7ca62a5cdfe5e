// Package api implements the HTTP handlers for the download service:
// task submission, listing, retry/cancel/remove, progress polling and
// statistics. Handlers translate between HTTP and the orchestrator; all
// task semantics live in the task package.
package api
