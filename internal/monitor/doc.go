// Package monitor runs the probe-evaluate-publish loop.
//
// The loop is single-threaded and synchronous: each tick probes the
// target and folds the outcome into the rolling window. Once the window
// has filled, each tick also classifies health, persists a record, and
// republishes every artifact. Persistence and publish failures are
// logged and the loop continues; only context cancellation and artifact
// construction errors stop it.
//
// New(...) wires a Monitor from its collaborators; Run(ctx) blocks
// until the context is cancelled. UpdateThresholds hands live threshold
// changes to the loop and is safe to call from the config watcher
// goroutine.
package monitor
