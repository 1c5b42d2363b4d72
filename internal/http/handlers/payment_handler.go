// Payment confirmation callback. The gateway redirects the payer's browser
// here after checkout, carrying the transaction and order identifiers as
// query parameters. The response is a tiny HTML page aimed at a human who
// just paid inside an in-app browser.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khliu/go-imagebot-backend/internal/http/middleware"
	"github.com/khliu/go-imagebot-backend/internal/services"
)

const (
	confirmOKPage = `<!doctype html><html lang="zh-Hant"><meta charset="utf-8"><title>付款完成</title><body style="font-family:sans-serif;text-align:center;padding-top:4em"><h1>付款完成</h1><p>請回到聊天室繼續生成圖片。</p></body></html>`

	confirmFailPage = `<!doctype html><html lang="zh-Hant"><meta charset="utf-8"><title>付款失敗</title><body style="font-family:sans-serif;text-align:center;padding-top:4em"><h1>付款失敗</h1><p>請回到聊天室重新嘗試，或輸入「付款資訊」。</p></body></html>`
)

// PaymentHandler terminates the gateway's confirm redirect.
type PaymentHandler struct {
	Pay *services.PaymentService
}

// NewPaymentHandler wires the callback handler.
func NewPaymentHandler(pay *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Pay: pay}
}

// Confirm handles GET /pay/confirm?transactionId=...&orderId=...
//
// Settlement runs synchronously: by the time the page renders, the
// reservation is confirmed and the chat notification has been pushed. The
// page itself never exposes settlement detail beyond success or failure.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	transactionID := c.Query("transactionId")
	orderID := c.Query("orderId")
	if transactionID == "" || orderID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing transactionId or orderId")
		return
	}

	err := h.Pay.HandleConfirm(c.Request.Context(), transactionID, orderID)
	if err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Str("order_id", orderID).Msg("payment confirmation failed")
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrReservationNotFound) {
			status = http.StatusNotFound
		}
		c.Data(status, "text/html; charset=utf-8", []byte(confirmFailPage))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(confirmOKPage))
}
