package model

// GatewayState describes transaction state reported by the payment gateway.
type GatewayState string

const (
	GatewayStateComplete   GatewayState = "COMPLETE"
	GatewayStatePending    GatewayState = "PENDING"
	GatewayStateCanceled   GatewayState = "CANCELED"
	GatewayStateNotFound   GatewayState = "NOT_FOUND"
	GatewayStateFullRefund GatewayState = "FULL_REFUND"
)

// GatewayStatus is the gateway's server-side view of a transaction.
type GatewayStatus struct {
	ProductCode     string
	TransactionUUID string
	TotalAmount     float64
	State           GatewayState
	RefID           string
}
