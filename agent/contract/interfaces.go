package contract

import "context"

// Inferrer is the language-model capability used for free-text extraction
// and lead summaries. Implementations must honour ctx cancellation.
type Inferrer interface {
	Complete(ctx context.Context, system string, user string) (string, error)
}

// Recorder receives analytics events. Callers treat it as fire-and-forget.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}
