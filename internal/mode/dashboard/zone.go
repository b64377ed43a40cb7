package dashboard

import (
	"fmt"
	"strconv"
	"strings"
)

// Zone ID format for dashboard mode:
// - Panels: panel:{name}
// - Phase rows: phase:{index}

// Zone ID prefixes
const (
	zonePanelPhase    = "panel:phase"
	zonePanelSettings = "panel:settings"
	zonePanelLogs     = "panel:logs"
	zonePhasePrefix   = "phase:"
)

// makePhaseZoneID creates a zone ID for a phase selector row.
func makePhaseZoneID(index int) string {
	return fmt.Sprintf("%s%d", zonePhasePrefix, index)
}

// parsePhaseZoneID extracts the index from a phase zone ID.
// Returns (index, true) on success, or (0, false) on failure.
func parsePhaseZoneID(zoneID string) (int, bool) {
	if !strings.HasPrefix(zoneID, zonePhasePrefix) {
		return 0, false
	}
	index, err := strconv.Atoi(strings.TrimPrefix(zoneID, zonePhasePrefix))
	if err != nil {
		return 0, false
	}
	return index, true
}
