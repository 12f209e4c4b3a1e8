// Package validate checks a layer's active sub-graph for structural and
// consistency problems and reports them as ordered issues.
//
// Validation never mutates and never fails: malformed graphs produce issues,
// not errors, so a broken drawing can still be saved and repaired by hand.
// Issue ordering is deterministic for identical input, which lets callers
// diff successive runs.
package validate
