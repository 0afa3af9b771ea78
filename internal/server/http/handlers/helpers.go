package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/suravi/checkout/internal/domain/model"
	"github.com/suravi/checkout/internal/server/http/dto"
	"github.com/suravi/checkout/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:     item.ProductID,
			Name:          item.Name,
			Slug:          item.Slug,
			Variant:       item.Variant,
			Size:          item.Size,
			Image:         item.Image,
			Price:         item.Price,
			OriginalPrice: item.OriginalPrice,
			Quantity:      item.Quantity,
		})
	}

	return dto.OrderResponse{
		ID:    order.ID,
		Items: items,
		ShippingAddress: dto.AddressResponse{
			FullName:   order.ShippingAddress.FullName,
			Phone:      order.ShippingAddress.Phone,
			Line1:      order.ShippingAddress.Line1,
			City:       order.ShippingAddress.City,
			District:   order.ShippingAddress.District,
			PostalCode: order.ShippingAddress.PostalCode,
		},
		ItemsPrice:         order.ItemsPrice,
		DiscountOnMRP:      order.DiscountOnMRP,
		CouponCode:         order.CouponCode,
		CouponDiscount:     order.CouponDiscount,
		ShippingPrice:      order.ShippingPrice,
		TotalPrice:         order.TotalPrice,
		PaymentMethod:      string(order.PaymentMethod),
		PaymentStatus:      string(order.PaymentStatus),
		Status:             string(order.Status),
		CancellationReason: order.CancellationReason,
		CreatedAt:          order.CreatedAt,
		PaidAt:             order.PaidAt,
		CancelledAt:        order.CancelledAt,
		DeliveredAt:        order.DeliveredAt,
	}
}
