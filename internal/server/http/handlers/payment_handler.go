package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/suravi/checkout/internal/domain/errors"
	"github.com/suravi/checkout/internal/domain/model"
	"github.com/suravi/checkout/internal/server/http/dto"
)

// PaymentHandler manages payment initiation, verification and the gateway callback.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Initiate handles POST /api/payment/initiate.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID := CurrentUserID(c)

	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	method := model.PaymentMethod(req.Method)
	if method != model.PaymentMethodCOD && method != model.PaymentMethodEsewa {
		c.Status(http.StatusBadRequest)
		return
	}

	form, order, err := h.facade.InitiatePayment(c.Request.Context(), userID, req.OrderID, method)
	if err != nil {
		// A paid-for COD order that lost the stock race lands on hold;
		// report the conflict together with the resulting order state.
		if errors.Is(err, domainErrors.ErrInsufficientStock) && order != nil {
			c.JSON(http.StatusConflict, dto.InitiatePaymentResponse{Order: toOrderResponse(*order)})
			return
		}
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrNotOwner):
			c.Status(http.StatusForbidden)
		case errors.Is(err, domainErrors.ErrAlreadyPaid),
			errors.Is(err, domainErrors.ErrOrderNotPending):
			c.Status(http.StatusConflict)
		case errors.Is(err, domainErrors.ErrInvalidState):
			c.Status(http.StatusBadRequest)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	response := dto.InitiatePaymentResponse{Order: toOrderResponse(*order)}
	if form != nil {
		response.Form = &dto.PaymentFormResponse{GatewayURL: form.GatewayURL, Fields: form.Fields}
	}

	c.JSON(http.StatusOK, response)
}

// Verify handles POST /api/payment/verify.
func (h *PaymentHandler) Verify(c *gin.Context) {
	userID := CurrentUserID(c)

	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.facade.VerifyPayment(c.Request.Context(), userID, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			c.Status(http.StatusNotFound)
		case errors.Is(err, domainErrors.ErrNotOwner):
			c.Status(http.StatusForbidden)
		case errors.Is(err, domainErrors.ErrVerificationFailed):
			c.Status(http.StatusPaymentRequired)
		case errors.Is(err, domainErrors.ErrInvalidState):
			c.Status(http.StatusConflict)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// Callback handles GET /api/payment/callback, the gateway redirect target.
// Whatever the verification outcome, the buyer's browser is redirected.
func (h *PaymentHandler) Callback(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Query("oid"), 10, 64)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	amount, err := strconv.ParseFloat(c.Query("amt"), 64)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	redirect, verifyErr := h.facade.PaymentCallback(c.Request.Context(), orderID, amount)
	if verifyErr != nil && redirect == "" {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Redirect(http.StatusSeeOther, redirect)
}
