// Package store provides the in-memory task collection. All structural
// mutation happens under a single lock; callers only ever receive copies
// of the task list, never the underlying map.
package store
