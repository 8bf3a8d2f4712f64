// Package textutil provides small helpers for chapter titles, slugs, and
// text excerpts shared across the pipeline.
package textutil
