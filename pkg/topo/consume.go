package topo

import "slices"

// The consumption set is the single source of truth for "is this external
// feeder already drawn in this layer". It is mutated only through AddNode,
// DeleteSelection and the three methods below, which keeps it in lock-step
// with the nodes that carry feeder keys.

// Consume marks an external feeder key as materialized in this layer.
// Consuming an already-consumed key is a no-op.
func (l *Layer) Consume(key string) {
	if key == "" {
		return
	}
	l.consumed[key] = struct{}{}
}

// Release removes a feeder key from the consumption set, making the feeder
// available again. It reports whether the key was present.
func (l *Layer) Release(key string) bool {
	if _, ok := l.consumed[key]; !ok {
		return false
	}
	delete(l.consumed, key)
	return true
}

// IsConsumed reports whether the feeder key is already drawn in this layer.
func (l *Layer) IsConsumed(key string) bool {
	_, ok := l.consumed[key]
	return ok
}

// ConsumedKeys returns the consumed feeder keys in sorted order.
func (l *Layer) ConsumedKeys() []string {
	out := make([]string, 0, len(l.consumed))
	for k := range l.consumed {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
