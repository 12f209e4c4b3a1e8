// Package ports keeps a board node's IN/OUT port set consistent with the
// edges actually attached to it.
//
// The allocator assigns every neighbor a stable slot index per direction and
// grows or shrinks the port list to the minimum count that covers all
// assigned slots. Neighbors keep their slot across re-runs, so rebuilding
// ports never reshuffles existing connections. Node width and relative port
// positions are pure functions of the port count, which makes repeated
// allocation idempotent.
package ports
