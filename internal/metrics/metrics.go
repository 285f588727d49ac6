package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connections tracks open websocket connections.
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "canvas_open_connections",
		Help: "Number of open websocket connections.",
	})

	// Rooms tracks live rooms including the global room.
	Rooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "canvas_rooms",
		Help: "Number of live rooms.",
	})

	// EventsTotal counts inbound protocol events by type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "canvas_events_total",
		Help: "Inbound protocol events processed, by event type.",
	}, []string{"type"})

	// ActionsCommitted counts actions appended to any room log.
	ActionsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_actions_committed_total",
		Help: "Drawing actions committed across all rooms.",
	})

	// RoomsReclaimed counts idle rooms removed by the sweep.
	RoomsReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "canvas_rooms_reclaimed_total",
		Help: "Idle rooms removed by the reclamation sweep.",
	})
)
