// Package repositories implements SQLite persistence for captured callback history.
//
// [CallbackRepository] stores one [models.CallbackRecord] per redirect and supports soft deletes
// via deleted_at timestamps; deleted records are excluded from queries by default.
//
// [CallbackRecorder] adapts the repository to the listener's payloads, so the host can keep an
// audit trail of logins without ever persisting authorization codes or state values.
//
// Sequence numbers provide stable, human-readable ordering (e.g., callback #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
