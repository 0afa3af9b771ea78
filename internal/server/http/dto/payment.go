package dto

// InitiatePaymentRequest binds an order to a payment method.
type InitiatePaymentRequest struct {
	OrderID int64  `json:"order_id"`
	Method  string `json:"method"`
}

// VerifyPaymentRequest identifies the order whose payment the client reports.
type VerifyPaymentRequest struct {
	OrderID int64 `json:"order_id"`
}

// PaymentFormResponse is the signed form the client posts to the gateway.
type PaymentFormResponse struct {
	GatewayURL string            `json:"gateway_url"`
	Fields     map[string]string `json:"fields"`
}

// InitiatePaymentResponse returns the updated order, plus a gateway form
// when the chosen method requires a redirect.
type InitiatePaymentResponse struct {
	Order OrderResponse        `json:"order"`
	Form  *PaymentFormResponse `json:"form,omitempty"`
}
