// Package jobs drives the interactive download workflow.
//
// The Orchestrator owns the top-level menu and the lifecycle of a job:
//
//   - StartNewJob resolves a chat, asks for an optional forum topic, the
//     metadata preference, the media types and the output directory, then
//     persists a Job with one cursor per selected type.
//   - ResumeJob re-resolves a stored job by its canonical handle and runs
//     whatever cursors are still pending.
//   - CompleteJob removes a finished job and notifies the user.
//
// Each cursor is handed to a Runner (the pagination engine) in the order the
// media types were selected. Failures to resolve a chat are reported as
// *ResolveError and return control to the menu.
package jobs
