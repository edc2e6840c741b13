package orders

const (
	TopicPaymentReceived   = "payment.received"
	TopicOrderDelivered    = "order.delivered"
	TopicFulfillmentFailed = "order.fulfillment.failed"
)

// Partition key = order_id, so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
