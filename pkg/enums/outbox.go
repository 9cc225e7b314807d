package enums

// OutboxEventType names a domain event recorded in the transactional outbox.
type OutboxEventType string

const (
	EventOrderCreated      OutboxEventType = "order.created"
	EventOrderPaid         OutboxEventType = "order.paid"
	EventOrderFailed       OutboxEventType = "order.failed"
	EventOrderRefunded     OutboxEventType = "order.refunded"
	EventTransferCompleted OutboxEventType = "transfer.completed"
	EventShiftClosed       OutboxEventType = "shift.closed"
	EventWalletCredited    OutboxEventType = "wallet.credited"
	EventWalletDebited     OutboxEventType = "wallet.debited"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder    OutboxAggregateType = "order"
	AggregateTransfer OutboxAggregateType = "transfer"
	AggregateShift    OutboxAggregateType = "shift"
	AggregateWallet   OutboxAggregateType = "wallet"
)

// OutboxStatus is the delivery state of an outbox row.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)
