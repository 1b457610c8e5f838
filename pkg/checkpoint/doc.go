// Package checkpoint persists resumable download jobs.
//
// A Job records, for one chat and optional forum topic, which media types
// are still pending and the id of the last message processed for each of
// them. Jobs live in the "state" container of pkg/store keyed by the chat
// id, and a Job exists exactly as long as at least one cursor is pending.
//
// Records are versioned. Version 1 records are decoded strictly; records
// written by the original Node.js tool (no version field, camelCase keys)
// are migrated in memory on load and rewritten in the current schema on
// the next Set.
package checkpoint
