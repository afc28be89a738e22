package agent

import "github.com/oklog/ulid/v2"

// ID prefix constants for different entity types.
const (
	PrefixSession = "sess"
	PrefixFile    = "file"
	PrefixRun     = "run"
)

// GenerateID produces a sortable unique identifier with the given prefix,
// e.g. "sess_01J9Z3K8QW6W2B5X1N7D4H0C3E".
func GenerateID(prefix string) string {
	return prefix + "_" + ulid.Make().String()
}
