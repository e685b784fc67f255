/*
Package ports defines the driven ports (interfaces) of the metta shell.

These interfaces decouple the session loop from the engine backend compiled
into the binary, from where history is persisted and from how lines are read.

# Key Interfaces

  - Engine: evaluates one InputUnit under a cancellation context (the Engine Adapter).
  - HistoryStore: persists the history log between sessions (file, redis or nothing).
  - LineReader: reads one raw line, unblocking when the context is cancelled.
*/
package ports
