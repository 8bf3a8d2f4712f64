// Package lineage defines the chapter version-lineage data model: chapters,
// their ordered text versions, and the pipeline statuses a chapter moves
// through on its way from original text to final version.
package lineage
