package consumer

import (
	"context"
	"encoding/json"

	"estate-crm/internal/commission"
	"estate-crm/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeSaleLifecycle reacts to sale_updated events by recalculating the
// commissions tied to the sale. A partial failure is committed anyway: each
// item's outcome is logged, and failed items are retried on the next
// explicit recalculation rather than by redelivering the event forever.
func ConsumeSaleLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	commissionService commission.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.sale_lifecycle")
	log.Info("sale lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("sale lifecycle consumer stopped")
				return
			}
			log.Error("fetch sale lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.SaleUpdatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode sale_updated event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}
		if event.EventType != events.SaleUpdated {
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := recalculateFromEvent(ctx, commissionService, event, log); err != nil {
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit sale lifecycle message failed", zap.Error(err))
			continue
		}
	}
}

// saleModificationReason is the adjustment reason recorded for every
// recalculation driven by a sale mutation, regardless of which fields
// changed; the fields themselves go to the log.
const saleModificationReason = "sale modification"

func recalculateFromEvent(ctx context.Context, svc commission.Service, event events.SaleUpdatedEvent, log *zap.Logger) error {
	result, err := svc.RecalculateForSale(
		ctx,
		event.CompanyID,
		event.ActorID,
		event.SaleID,
		saleModificationReason,
	)
	if err != nil {
		log.Error("recalculate commissions for sale failed",
			zap.String("sale_id", event.SaleID),
			zap.String("company_id", event.CompanyID),
			zap.Error(err),
		)
		return err
	}

	log.Info("commissions recalculated from sale_updated event",
		zap.String("sale_id", event.SaleID),
		zap.Strings("changed_fields", event.ChangedFields),
		zap.Int("adjusted", len(result.Adjusted)),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("failed", len(result.Failures)),
	)
	return nil
}
