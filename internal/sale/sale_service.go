package sale

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"estate-crm/internal/events"
	"estate-crm/internal/messaging/kafka"
	saleerrors "estate-crm/internal/sale/errors"
	"estate-crm/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	GetByID(ctx context.Context, companyID, id string) (SaleResponse, error)
	UpdateDetails(ctx context.Context, companyID, actorID, id string, req UpdateSaleRequest) (SaleResponse, error)
}

type service struct {
	db     *gorm.DB
	repo   Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("sale.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("sale.service")
	}
	return &service{db: db, repo: repo, outbox: outbox, logger: l}
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (SaleResponse, error) {
	sl, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SaleResponse{}, saleerrors.ErrSaleNotFound
		}
		return SaleResponse{}, err
	}
	return mapToResponse(*sl), nil
}

// UpdateDetails corrects sale_price/base_price/unit_type and appends a
// sale_updated event to the outbox in the same transaction. Downstream, the
// consumer recalculates every commission tied to this sale.
func (s *service) UpdateDetails(ctx context.Context, companyID, actorID, id string, req UpdateSaleRequest) (SaleResponse, error) {
	s.logger.Debug("update sale requested",
		zap.String("sale_id", id),
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return SaleResponse{}, saleerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return SaleResponse{}, saleerrors.ErrInvalidActorID
	}
	if req.SalePrice == nil && req.BasePrice == nil && req.UnitType == nil {
		return SaleResponse{}, saleerrors.ErrNoFieldsToUpdate
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		s.logger.Error("update sale begin tx failed", zap.Error(tx.Error))
		return SaleResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	sl, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SaleResponse{}, saleerrors.ErrSaleNotFound
		}
		return SaleResponse{}, err
	}
	if sl.Status == StatusCancelled {
		return SaleResponse{}, saleerrors.ErrSaleCancelled
	}

	var changed []string
	if req.SalePrice != nil && !req.SalePrice.Equal(sl.SalePrice) {
		sl.SalePrice = *req.SalePrice
		changed = append(changed, "sale_price")
	}
	if req.BasePrice != nil && !req.BasePrice.Equal(sl.BasePrice) {
		sl.BasePrice = *req.BasePrice
		changed = append(changed, "base_price")
	}
	if req.UnitType != nil && *req.UnitType != sl.UnitType {
		sl.UnitType = *req.UnitType
		changed = append(changed, "unit_type")
	}

	if len(changed) == 0 {
		// Nothing actually changed; skip the write and the event.
		return mapToResponse(*sl), nil
	}

	if err := qtx.Update(ctx, sl); err != nil {
		s.logger.Error("update sale persist failed", zap.String("sale_id", id), zap.Error(err))
		return SaleResponse{}, err
	}

	event := events.SaleUpdatedEvent{
		EventType:     events.SaleUpdated,
		SaleID:        sl.ID.String(),
		CompanyID:     companyID,
		ChangedFields: changed,
		ActorID:       actorID,
		OccurredAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return SaleResponse{}, err
	}

	outboxEvent := kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "sale",
		AggregateID:   sl.ID.String(),
		EventType:     events.SaleUpdated,
		Topic:         events.SaleLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}
	if err := s.outbox.WithTx(tx).Create(ctx, outboxEvent); err != nil {
		s.logger.Error("update sale outbox append failed", zap.String("sale_id", id), zap.Error(err))
		return SaleResponse{}, err
	}

	if err := tx.Commit().Error; err != nil {
		s.logger.Error("update sale commit failed", zap.String("sale_id", id), zap.Error(err))
		return SaleResponse{}, err
	}
	s.logger.Info("update sale success",
		zap.String("sale_id", id),
		zap.Strings("changed_fields", changed),
	)

	return mapToResponse(*sl), nil
}
