package queue

import "context"

// Job handles one message type. Returning an error schedules a retry until
// the queue's retry limit is spent, after which the message is dead-lettered.
type Job interface {
	Name() string
	// Type is matched against Message.Type.
	Type() string
	Handle(ctx context.Context, payload interface{}) error
}
