package book

// Operation names reported to Metrics.
const (
	OpCreated  = "created"
	OpUpdated  = "updated"
	OpDeleted  = "deleted"
	OpViewed   = "viewed"
	OpSearched = "searched"
	OpListed   = "listed"
)

// Metrics receives book operation telemetry from the HTTP layer.
type Metrics interface {
	// StartOperation marks op as in flight. The returned func records its duration.
	StartOperation(op string) func()
	// Count increments the success counter for op.
	Count(op string)
	SetTotalBooks(n int64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) StartOperation(string) func() { return func() {} }

func (NopMetrics) Count(string) {}

func (NopMetrics) SetTotalBooks(int64) {}
