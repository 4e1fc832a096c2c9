// Package journal records published notification frames and serializes them
// to Arrow IPC for replay and offline inspection.
//
// Each row of a journal batch is one frame:
//   - topic: string - Topic the frame was published on
//   - sequence: uint32 - Per-notifier sequence number
//   - timestamp_ms: int64 - Publish time in Unix milliseconds
//   - parts: list<binary> - Every wire part, topic and sequence included
package journal
