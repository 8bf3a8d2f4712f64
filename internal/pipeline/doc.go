// Package pipeline runs chapters through the fetch, draft, review, and
// finalize stages in order, persisting every produced version and resuming
// interrupted chapters from their stored lineage.
package pipeline
