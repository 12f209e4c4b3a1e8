// Package registry models the read-only feeder/source/board snapshot the
// host project supplies to the graph engine. Rows describe requirements
// declared elsewhere in the project (cabinet schedules, load lists); the
// engine consumes them to materialize nodes and to cross-check drawings
// against the upstream selection state.
//
// A Snapshot is immutable once built. The engine never writes back to it.
package registry
