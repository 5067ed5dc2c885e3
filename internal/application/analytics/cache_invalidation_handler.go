package analytics

import (
	"context"

	"github.com/btp-erp/backend/internal/domain/ledger"
	"github.com/btp-erp/backend/internal/domain/sales"
	"github.com/btp-erp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CacheInvalidationHandler drops cached statistics whenever the ledger or a
// sales record changes
type CacheInvalidationHandler struct {
	cache  Cache
	logger *zap.Logger
}

// NewCacheInvalidationHandler creates a new CacheInvalidationHandler
func NewCacheInvalidationHandler(cache Cache, logger *zap.Logger) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{cache: cache, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *CacheInvalidationHandler) EventTypes() []string {
	return []string{
		ledger.EventTypeTransactionRecorded,
		ledger.EventTypeTransactionUpdated,
		ledger.EventTypeTransactionDeleted,
		sales.EventTypeSalesRecordCreated,
		sales.EventTypeSalesRecordUpdated,
		sales.EventTypeSalesRecordDeleted,
		sales.EventTypeSalesRecordValidated,
		sales.EventTypeSalesRecordDelivered,
		sales.EventTypeSalesRecordCancelled,
		sales.EventTypeInvoiceGenerated,
		sales.EventTypeInvoiceSettled,
	}
}

// Handle invalidates the stats cache
func (h *CacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Warn("stats cache invalidation failed",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
