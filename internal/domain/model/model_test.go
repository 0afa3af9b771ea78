package model

import "testing"

func TestOrderStatusValues(t *testing.T) {
	cases := []struct {
		name  string
		got   OrderStatus
		value string
	}{
		{"pending payment", OrderStatusPendingPayment, "pending_payment"},
		{"processing", OrderStatusProcessing, "processing"},
		{"shipped", OrderStatusShipped, "shipped"},
		{"delivered", OrderStatusDelivered, "delivered"},
		{"cancelled", OrderStatusCancelled, "cancelled"},
		{"on hold", OrderStatusOnHold, "on_hold"},
		{"payment failed", OrderStatusPaymentFailed, "payment_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if string(tc.got) != tc.value {
				t.Fatalf("expected %s, got %s", tc.value, tc.got)
			}
		})
	}
}

func TestPaymentStatusValues(t *testing.T) {
	cases := []struct {
		status PaymentStatus
		value  string
	}{
		{PaymentStatusPending, "pending"},
		{PaymentStatusPaid, "paid"},
		{PaymentStatusFailed, "failed"},
		{PaymentStatusRefundInitiated, "refund_initiated"},
		{PaymentStatusRefunded, "refunded"},
	}

	for _, tc := range cases {
		if string(tc.status) != tc.value {
			t.Fatalf("expected %s, got %s", tc.value, tc.status)
		}
	}
}

func TestStockKeyFromItemAndLine(t *testing.T) {
	item := OrderItem{ProductID: 7, Variant: "Red", Size: "M"}
	line := CartLine{ProductID: 7, Variant: "Red", Size: "M"}
	want := StockKey{ProductID: 7, Variant: "Red", Size: "M"}
	if item.Key() != want {
		t.Fatalf("unexpected item key %+v", item.Key())
	}
	if line.Key() != want {
		t.Fatalf("unexpected line key %+v", line.Key())
	}
}
