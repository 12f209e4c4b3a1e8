package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateProjectName validates a project name for safety and correctness.
// It rejects names that could be used for path traversal or injection when
// the name becomes part of a storage key or file path.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateProjectName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "project name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "project name too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "project name contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "project name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// layerKeyRegex matches the known workspace keys.
var layerKeyRegex = regexp.MustCompile(`^(CA_ES|CA_NOES|CC_B1|CC_B2)$`)

// ValidateLayerKey validates a workspace (layer) key.
func ValidateLayerKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidLayerKey, "layer key cannot be empty")
	}

	if !layerKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidLayerKey, "unknown layer key: %q", key)
	}

	return nil
}

// feederKeyRegex matches "<scope>:<cabinet_ref>:<component_index|none>:<req_code>".
var feederKeyRegex = regexp.MustCompile(`^[^:\s]+:[^:\s]+:(\d+|none):(CA_ES|CA_NOES|CC_B1|CC_B2)$`)

// ValidateFeederKey validates an external feeder identity key.
func ValidateFeederKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidFeederKey, "feeder key cannot be empty")
	}

	if len(key) > 500 {
		return New(ErrCodeInvalidFeederKey, "feeder key too long (max 500 characters)")
	}

	for _, r := range key {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidFeederKey, "feeder key contains invalid characters")
		}
	}

	if !feederKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidFeederKey, "malformed feeder key: %q", key)
	}

	return nil
}

// nodeKindRegex matches the closed set of node kinds on the wire.
var nodeKindRegex = regexp.MustCompile(`^(source|board|load|charger)$`)

// ValidateNodeKind validates a node kind string before it enters the graph.
func ValidateNodeKind(kind string) error {
	if kind == "" {
		return New(ErrCodeInvalidNodeKind, "node kind cannot be empty")
	}

	if !nodeKindRegex.MatchString(kind) {
		return New(ErrCodeInvalidNodeKind, "unknown node kind: %q", kind)
	}

	return nil
}

// dcSystemRegex matches the DC bus names a project may declare.
var dcSystemRegex = regexp.MustCompile(`^B[0-9]+$`)

// ValidateDCSystem validates a DC system (battery bus) name.
func ValidateDCSystem(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "dc system cannot be empty")
	}

	if !dcSystemRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid dc system name: %q", name)
	}

	return nil
}
