package booking

import "time"

const DefaultAcceptanceWindow = 24 * time.Hour

// Config holds scheduling policy.
type Config struct {
	MaxOccurrences   int           // Cap on recurring expansion (default: 365)
	AcceptanceWindow time.Duration // How long a promoted user has to accept (default: 24h)
	MaxWaitlistSize  int           // Active entries allowed per slot, 0 for unlimited

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxOccurrences:   DefaultMaxOccurrences,
		AcceptanceWindow: DefaultAcceptanceWindow,
	}
}

// Engine wires the scheduling components around one store. All components
// share the same per-field write serialization.
type Engine struct {
	Detector  *ConflictDetector
	Scheduler *Scheduler
	Waitlist  *Queue
	Promoter  *Promoter
}

// New builds an Engine over store.
func New(store Store, cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	maxOccurrences := cfg.MaxOccurrences
	if maxOccurrences <= 0 || maxOccurrences > DefaultMaxOccurrences {
		maxOccurrences = DefaultMaxOccurrences
	}
	window := cfg.AcceptanceWindow
	if window <= 0 {
		window = DefaultAcceptanceWindow
	}

	locks := newFieldLocks()
	detector := NewConflictDetector(store)
	scheduler := &Scheduler{
		store:          store,
		clock:          clock,
		locks:          locks,
		maxOccurrences: maxOccurrences,
	}
	queue := &Queue{
		store:   store,
		clock:   clock,
		locks:   locks,
		maxSize: cfg.MaxWaitlistSize,
	}
	promoter := &Promoter{
		store:     store,
		clock:     clock,
		locks:     locks,
		window:    window,
		scheduler: scheduler,
	}

	return &Engine{
		Detector:  detector,
		Scheduler: scheduler,
		Waitlist:  queue,
		Promoter:  promoter,
	}
}
