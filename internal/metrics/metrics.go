// Package metrics exposes Prometheus instruments for the world service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quizworld"

// Metrics groups the service instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	PlayersCreated  prometheus.Counter
	PlayersJoined   prometheus.Counter
	PositionUpdates prometheus.Counter
	ActivePlayers   prometheus.Gauge
	ChatMessages    prometheus.Counter
	GymSubmissions  *prometheus.CounterVec
	CleanupDeleted  *prometheus.CounterVec
	ScoresIngested  prometheus.Counter
}

// New creates the instruments and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PlayersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "presence", Name: "players_created_total",
			Help: "Player records created.",
		}),
		PlayersJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "presence", Name: "players_joined_total",
			Help: "Successful joins of existing accounts.",
		}),
		PositionUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "presence", Name: "position_updates_total",
			Help: "Accepted position writes.",
		}),
		ActivePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "presence", Name: "active_players",
			Help: "Players inside the active window at the last listing.",
		}),
		ChatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chat", Name: "messages_total",
			Help: "Chat messages stored.",
		}),
		GymSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "gym", Name: "submissions_total",
			Help: "Gym score submissions by outcome.",
		}, []string{"outcome"}),
		CleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cleanup", Name: "deleted_total",
			Help: "Records removed by the staleness sweep.",
		}, []string{"kind"}),
		ScoresIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "kafka", Name: "scores_ingested_total",
			Help: "Score messages consumed from Kafka.",
		}),
	}
	reg.MustRegister(
		m.PlayersCreated,
		m.PlayersJoined,
		m.PositionUpdates,
		m.ActivePlayers,
		m.ChatMessages,
		m.GymSubmissions,
		m.CleanupDeleted,
		m.ScoresIngested,
	)
	return m
}

func (m *Metrics) PlayerCreated() {
	if m != nil {
		m.PlayersCreated.Inc()
	}
}

func (m *Metrics) PlayerJoined() {
	if m != nil {
		m.PlayersJoined.Inc()
	}
}

func (m *Metrics) PositionUpdated() {
	if m != nil {
		m.PositionUpdates.Inc()
	}
}

func (m *Metrics) SetActivePlayers(n int) {
	if m != nil {
		m.ActivePlayers.Set(float64(n))
	}
}

func (m *Metrics) ChatMessageStored() {
	if m != nil {
		m.ChatMessages.Inc()
	}
}

func (m *Metrics) GymSubmission(accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.GymSubmissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CleanedUp(kind string, n int) {
	if m != nil && n > 0 {
		m.CleanupDeleted.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *Metrics) ScoreIngested(n int) {
	if m != nil {
		m.ScoresIngested.Add(float64(n))
	}
}
