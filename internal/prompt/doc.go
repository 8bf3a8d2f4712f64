// Package prompt manages the named instruction templates rendered into
// generative calls. Built-in writer and reviewer templates can be overridden
// from a configured templates directory.
package prompt
