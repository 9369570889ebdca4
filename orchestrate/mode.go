package orchestrate

// Mode selects the execution policy for one user turn.
type Mode string

const (
	// ModeSingle runs exactly one provider and stores its raw output.
	ModeSingle Mode = "single"
	// ModeMultiple runs all providers independently, each storing its own output.
	ModeMultiple Mode = "multiple"
	// ModeAggregate runs all providers, waits for every one to finish, and
	// stores a synthesized answer alongside the raw per-provider outputs.
	ModeAggregate Mode = "aggregate"
)

// ParseMode maps a request mode string to an execution policy. Unknown or
// absent modes default to aggregate.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeSingle:
		return ModeSingle
	case ModeMultiple:
		return ModeMultiple
	default:
		return ModeAggregate
	}
}
