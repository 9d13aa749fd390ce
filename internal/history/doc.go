// Package history persists the health timeline: one Record per
// evaluation, carrying a second-precision UTC timestamp and a boolean
// health verdict (serialized as 0/1 on the wire).
//
// Store is the persistence interface with three interchangeable
// backends: DynamoDB (DynamoStore), SQLite (SQLiteStore), and a local
// JSON file (JSONFileStore). The backing store is append-mostly; reads
// happen at startup and in the offline subcommands.
//
// Trim is the shared compaction pass: it sorts records, drops any
// record closer than a minute to the last record kept, and caps the
// result to the retention horizon. The gap check measures against the
// last kept record, not the last seen one, so a burst of sub-minute
// records collapses to its first entry.
package history
