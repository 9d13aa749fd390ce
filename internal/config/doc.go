// Package config loads and watches the monitor configuration file.
//
// Top-level types:
//   - Config{Target, Thresholds, Window, Storage, Output} — full config
//     tree parsed from YAML
//   - TargetConfig — url, timeout, probe_interval, user_agent,
//     authorization, insecure_skip_verify
//   - ThresholdConfig — latency, error_rate, deviation classifier bounds
//   - WindowConfig — size, retention, prune_count
//   - StorageConfig — dynamo_table, aws_region, sqlite_path; Backend()
//     picks DynamoDB over SQLite over the JSON file fallback
//   - OutputConfig — json_name, html_name, s3_bucket, tz_offset,
//     tz_caption, metrics_textfile, debug
//
// Load(path) reads the YAML file, applies defaults (2s timeout, 1s
// probe interval, 240-sample window, 3-day retention), then validates
// required fields and ranges. Default() returns the same defaults
// without touching the filesystem; CLI flags layer on top.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and
// calls onChange with the newly parsed Config, letting the monitor pick
// up threshold changes without a restart. It handles the rename→create
// pattern used by atomic-save editors by re-adding the watch after a
// rename event; a file that fails to parse keeps the previous config.
package config
