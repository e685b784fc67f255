// Package engine holds the machinery shared by the engine adapters: the
// worker Dispatcher that races an evaluation against its cancellation token,
// the conversion from engine results to domain outcomes, and the version gate
// of the hosted variant.
//
// The adapters themselves live in the native and hosted subpackages. Only one
// of them is linked into a binary (see internal/backend).
package engine
