// Package metrics exports the current window statistics in Prometheus
// text exposition format, following the node-exporter textfile
// collector convention: the monitor writes a .prom file each evaluation
// and a local exporter picks it up. The file is replaced atomically so
// a collector never reads a half-written exposition.
package metrics
