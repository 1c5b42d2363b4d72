// Webhook receiver. The platform posts event batches here; the handler
// validates the channel signature over the raw body, drops redelivered
// batches, acknowledges immediately, and processes each event on its own
// goroutine so slow generations never stall the webhook.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/khliu/go-imagebot-backend/internal/http/middleware"
	"github.com/khliu/go-imagebot-backend/internal/line"
	"github.com/khliu/go-imagebot-backend/internal/repo"
	"github.com/khliu/go-imagebot-backend/internal/services"
)

const (
	// headerSignature carries the channel signature over the raw body.
	headerSignature = "X-Line-Signature"
	// headerRetryKey identifies a delivery attempt; redeliveries reuse it.
	headerRetryKey = "X-Line-Retry-Key"

	// maxWebhookBody caps the inbound batch size.
	maxWebhookBody = 1 << 20

	// eventTimeout bounds the background processing of one event,
	// generation call included.
	eventTimeout = 2 * time.Minute
)

// WebhookHandler terminates the platform webhook.
type WebhookHandler struct {
	Engine        *services.Engine
	DB            *gorm.DB
	ChannelSecret string
	RedeliveryTTL time.Duration
}

// NewWebhookHandler wires the receiver.
func NewWebhookHandler(engine *services.Engine, db *gorm.DB, channelSecret string, redeliveryTTL time.Duration) *WebhookHandler {
	return &WebhookHandler{Engine: engine, DB: db, ChannelSecret: channelSecret, RedeliveryTTL: redeliveryTTL}
}

// Receive handles POST /webhook.
//
// The body is read raw because the signature covers the exact bytes. A batch
// whose retry key was already recorded is acknowledged without processing,
// so platform redeliveries cannot double-spend quota. Acknowledgement never
// waits for event processing.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable body")
		return
	}

	if !line.ValidateSignature(h.ChannelSecret, body, c.GetHeader(headerSignature)) {
		fail(c, http.StatusUnauthorized, ErrCodeInvalidSignature, "signature validation failed")
		return
	}

	if key := c.GetHeader(headerRetryKey); key != "" {
		err := repo.RecordDelivery(c.Request.Context(), h.DB, key, time.Now(), h.RedeliveryTTL)
		if errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Info().Str("retry_key", key).Msg("duplicate delivery dropped")
			ok(c, http.StatusOK, gin.H{"status": "duplicate"})
			return
		}
		if err != nil {
			// Dedupe bookkeeping must not lose events; process anyway.
			middleware.LoggerFrom(c).Warn().Err(err).Msg("delivery dedupe failed")
		}
	}

	req, err := line.ParseWebhook(body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed webhook body")
		return
	}

	for _, ev := range req.Events {
		ev := ev
		// Detach from the request: processing outlives the 200 response.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), eventTimeout)
		go func() {
			defer cancel()
			h.Engine.HandleEvent(ctx, ev)
		}()
	}

	ok(c, http.StatusOK, gin.H{"status": "ok", "events": len(req.Events)})
}
