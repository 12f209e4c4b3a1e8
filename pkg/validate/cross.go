package validate

import (
	"fmt"

	"github.com/jzagalv/ssaa-designer/pkg/registry"
	"github.com/jzagalv/ssaa-designer/pkg/topo"
)

// Cross compares one layer's drawing against the upstream registry snapshot
// for its workspace and reports divergence. It is pure: neither the layer
// nor the snapshot is modified.
//
// Findings:
//   - a drawn feeder whose upstream selection was removed (error)
//   - an upstream-selected feeder not drawn yet (info)
//   - a drawn source whose upstream entity vanished or stopped being a
//     source (error)
//   - an upstream source with no node in the layer (warning)
func Cross(l *topo.Layer, snap *registry.Snapshot, req registry.RequirementCode) []Issue {
	var issues []Issue

	drawnKeys := make(map[string]bool)
	drawnSources := make(map[string]bool)

	for _, n := range l.Nodes() {
		if n.FeederKey != "" {
			drawnKeys[n.FeederKey] = true
			if !snap.Selected(n.FeederKey) {
				issues = append(issues, Issue{
					Level:   LevelError,
					Code:    CodeArchFeedRemoved,
					Message: fmt.Sprintf("feeder %s is drawn but no longer selected upstream", n.FeederKey),
					NodeID:  n.ID,
				})
			}
		}
		if n.Kind == topo.KindSource && n.ExternalKey != "" {
			drawnSources[n.ExternalKey] = true
			if _, ok := snap.Source(n.ExternalKey); !ok {
				issues = append(issues, Issue{
					Level:   LevelError,
					Code:    CodeSourceRemoved,
					Message: fmt.Sprintf("source %s no longer exists upstream", n.ExternalKey),
					NodeID:  n.ID,
				})
			}
		}
	}

	for _, key := range snap.SelectedKeys(req) {
		if drawnKeys[key] || l.IsConsumed(key) {
			continue
		}
		issues = append(issues, Issue{
			Level:   LevelInfo,
			Code:    CodeFeedSelectedNotUsed,
			Message: fmt.Sprintf("feeder %s is selected upstream but not drawn yet", key),
		})
	}

	for _, row := range snap.Sources(req) {
		if drawnSources[row.SourceKey()] {
			continue
		}
		issues = append(issues, Issue{
			Level:   LevelWarn,
			Code:    CodeSourceNotDrawn,
			Message: fmt.Sprintf("source %s is declared upstream but not drawn", row.SourceKey()),
		})
	}

	Sort(issues)
	return issues
}
