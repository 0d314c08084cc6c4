package audit

import "context"

// Sink records audit entries. Implementations must be append-only; the
// engine never reads audit entries back.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}
