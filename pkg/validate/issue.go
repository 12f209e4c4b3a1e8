package validate

import (
	"sort"
	"strconv"
	"strings"
)

// Level grades an issue's severity.
type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
)

// Code identifies the class of problem an issue reports.
type Code string

const (
	CodeEdgeSelfLoop      Code = "EDGE_SELF_LOOP"
	CodeEdgeDuplicate     Code = "EDGE_DUPLICATE"
	CodeEdgeDangling      Code = "EDGE_DANGLING"
	CodeGraphCycle        Code = "GRAPH_CYCLE"
	CodeNodeOrphan        Code = "NODE_ORPHAN"
	CodeRootHasIncoming   Code = "ROOT_HAS_INCOMING"
	CodeSourceHasIncoming Code = "SOURCE_HAS_INCOMING"
	CodeSourceDuplicate   Code = "SOURCE_DUPLICATE"

	CodeArchFeedRemoved     Code = "ARCH_FEED_REMOVED"
	CodeFeedSelectedNotUsed Code = "FEED_SELECTED_NOT_USED"
	CodeSourceRemoved       Code = "SOURCE_REMOVED"
	CodeSourceNotDrawn      Code = "SOURCE_NOT_DRAWN"
)

// Issue is a single validation finding. NodeID and EdgeID are optional and
// locate the finding in the graph when set.
type Issue struct {
	Level   Level  `json:"level"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	NodeID  string `json:"node_id,omitempty"`
	EdgeID  string `json:"edge_id,omitempty"`
}

// Sort orders issues deterministically: by code, then node id, then edge id,
// then message. Re-running validation on an unchanged graph yields an
// identical slice.
func Sort(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.NodeID != b.NodeID {
			return a.NodeID < b.NodeID
		}
		if a.EdgeID != b.EdgeID {
			return a.EdgeID < b.EdgeID
		}
		return a.Message < b.Message
	})
}

// Errors reports whether any issue in the slice is level error.
func Errors(issues []Issue) bool {
	for _, is := range issues {
		if is.Level == LevelError {
			return true
		}
	}
	return false
}

// Summary renders a short one-line count ("2 errors, 1 warning") for logs
// and CLI output.
func Summary(issues []Issue) string {
	var nErr, nWarn, nInfo int
	for _, is := range issues {
		switch is.Level {
		case LevelError:
			nErr++
		case LevelWarn:
			nWarn++
		default:
			nInfo++
		}
	}
	parts := make([]string, 0, 3)
	add := func(n int, singular string) {
		if n == 0 {
			return
		}
		s := singular
		if n != 1 {
			s += "s"
		}
		parts = append(parts, strconv.Itoa(n)+" "+s)
	}
	add(nErr, "error")
	add(nWarn, "warning")
	add(nInfo, "notice")
	if len(parts) == 0 {
		return "no issues"
	}
	return strings.Join(parts, ", ")
}
