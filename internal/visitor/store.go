package visitor

import "context"

// Store is the durable record store for visitors. Implementations return
// sentinel.ErrNotFound for absent identifiers; the service translates that
// into a domain error.
type Store interface {
	FindAll(ctx context.Context) ([]Visitor, error)
	FindByID(ctx context.Context, id int64) (Visitor, error)
	// Save inserts when ID is zero (assigning the identifier and defaulting
	// CreatedDate) and overwrites wholesale otherwise.
	Save(ctx context.Context, v Visitor) (Visitor, error)
	DeleteByID(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

// Transactor is implemented by stores that can scope a sequence of calls in
// a single transaction. The memory store does not implement it; update is
// documented non-atomic there.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher delivers mutation and fetch notifications to the bus.
// Delivery is best-effort: implementations log failures and never surface
// them to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, topic, message string)
}
