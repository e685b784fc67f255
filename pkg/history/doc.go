// Package history keeps the ordered log of submitted input units and
// persists it between sessions.
//
// The Log is filled by the session loop and flushed to a ports.HistoryStore
// on exit. Three stores are provided: FileStore (one entry per line, written
// atomically), RedisStore (a capped list) and NopStore.
package history
