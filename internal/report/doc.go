// Package report builds the published JSON and HTML artifacts for one
// evaluation tick. Both are regenerated from scratch every tick and
// overwrite the previous version at the sink.
//
// Summary is the machine-readable JSON snapshot of the window
// statistics; Page is the human-facing status page that links the
// summary, the timeline PNG, and the last captured error.
package report
