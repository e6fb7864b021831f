package hive

import "fmt"

// Kind classifies a ledger failure so callers can decide on retry policy
// without ever inspecting error text themselves.
type Kind int

const (
	// KindTransport covers unreachable nodes, timeouts and non-200 responses
	KindTransport Kind = iota

	// KindRPC covers errors the node returned for an accepted request
	KindRPC

	// KindInvalidKey means the supplied WIF key could not be decoded
	KindInvalidKey

	// KindMissingAuthority means the key lacks active authority for the witness
	KindMissingAuthority
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRPC:
		return "rpc"
	case KindInvalidKey:
		return "invalid_key"
	case KindMissingAuthority:
		return "missing_authority"
	default:
		return "unknown"
	}
}

// Error is a classified ledger failure
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("hive %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the failure is non-recoverable by retrying: a key
// that does not decode or lacks authority will not start working later.
func (e *Error) Fatal() bool {
	return e.Kind == KindInvalidKey || e.Kind == KindMissingAuthority
}
