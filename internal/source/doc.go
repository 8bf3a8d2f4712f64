// Package source loads chapter text from the web or local files and
// persists the raw text to the downloads area so later stages never
// re-fetch.
package source
