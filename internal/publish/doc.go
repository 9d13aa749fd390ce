// Package publish delivers the per-tick artifacts to a sink. Every
// operation is an idempotent overwrite: re-publishing the same tick is
// harmless, and a lost write only costs that tick's artifact.
//
// Two sinks are provided: S3Publisher uploads to an S3 bucket with a
// short Cache-Control so the page stays fresh behind a CDN, and
// FilePublisher writes to the local working directory. The monitor
// falls back to FilePublisher when the S3 client cannot be built.
package publish
