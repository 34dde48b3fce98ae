package console

import (
	"ride-console/internal/general/contracts"
	"ride-console/internal/ports"
	"ride-console/internal/software/console/mapsync"
)

// RenderFrame carries the map commands produced by one reconciliation.
type RenderFrame struct {
	Type     string            `json:"type"` // "render"
	Commands []mapsync.Command `json:"commands"`
}

// RidesFrame carries the list panel's content.
type RidesFrame struct {
	Type       string               `json:"type"` // "rides"
	Rides      []ports.EnrichedRide `json:"rides"`
	Count      int                  `json:"count"`
	SelectedID string               `json:"selected_id"`
}

// SummaryFrame carries the status counters.
type SummaryFrame struct {
	Type string `json:"type"` // "summary"
	ports.SummaryResult
}

func renderFrame(cmds []mapsync.Command) RenderFrame {
	return RenderFrame{Type: contracts.WSFrameRender, Commands: cmds}
}

func ridesFrame(rides []ports.EnrichedRide, selectedID string) RidesFrame {
	if rides == nil {
		rides = []ports.EnrichedRide{}
	}
	return RidesFrame{Type: contracts.WSFrameRides, Rides: rides, Count: len(rides), SelectedID: selectedID}
}

func selectionFrame(selectedID string) contracts.WSSelection {
	return contracts.WSSelection{Type: contracts.WSFrameSelection, RideID: selectedID}
}

func summaryFrame(s ports.SummaryResult) SummaryFrame {
	return SummaryFrame{Type: contracts.WSFrameSummary, SummaryResult: s}
}
