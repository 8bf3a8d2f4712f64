// Command inkwell is the CLI for the book publication pipeline: it fetches
// chapters, produces AI drafts and reviews, gates finalization on a human
// decision, and queries the stored version lineage.
package main
