package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors. Label values are fixed, small sets so cardinality stays
// bounded.
var (
	// BookingsTotal counts booking attempts by outcome
	// (booked|slot_taken|invalid|error).
	BookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// ConversationTurns counts processed customer turns by the goal state
	// reached before the reply was generated.
	ConversationTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_turns_total",
			Help: "Customer turns processed, by goal state.",
		},
		[]string{"goal"},
	)

	// GeneratorRequests counts generator calls by provider slot and outcome.
	GeneratorRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generator_requests_total",
			Help: "Reply generator calls by generator and outcome.",
		},
		[]string{"generator", "outcome"},
	)

	// DeliveryMessages counts outbound WhatsApp sends by outcome.
	DeliveryMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_messages_total",
			Help: "Outbound messages by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(BookingsTotal, ConversationTurns, GeneratorRequests, DeliveryMessages)
}

// Outcome maps an error to the "ok"/"error" label pair used above.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
