// Package watch drives a live document from an HTML file.
//
// A File holds the parsed document; a Watcher signals when the file changes
// on disk, and Run reloads the File on each signal. Reloading applies a
// keyed diff instead of rebuilding, so unchanged elements keep their
// identity and upgrade state.
package watch
