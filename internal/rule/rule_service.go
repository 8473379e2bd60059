package rule

import (
	"context"
	"errors"
	"time"

	ruleerrors "estate-crm/internal/rule/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateRuleRequest) (RuleResponse, error)
	ValidateDraft(ctx context.Context, companyID string, req CreateRuleRequest) (ValidationResult, error)
	GetAll(ctx context.Context, companyID string) ([]RuleResponse, error)
	GetByID(ctx context.Context, companyID, id string) (RuleResponse, error)
}

type service struct {
	db     *gorm.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("rule.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rule.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateRuleRequest) (RuleResponse, error) {
	s.logger.Debug("create rule requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("name", req.Name),
	)

	draft, err := buildRule(companyID, actorID, req)
	if err != nil {
		s.logger.Warn("create rule rejected", zap.Error(err))
		return RuleResponse{}, err
	}

	if res := Validate(draft); !res.IsValid {
		s.logger.Warn("create rule validation failed",
			zap.Strings("errors", res.Errors),
		)
		return RuleResponse{}, ruleerrors.ErrRuleInvalid
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		s.logger.Error("create rule begin tx failed", zap.Error(tx.Error))
		return RuleResponse{}, tx.Error
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, draft); err != nil {
		s.logger.Error("create rule persist failed", zap.Error(err))
		return RuleResponse{}, err
	}

	if err := tx.Commit().Error; err != nil {
		s.logger.Error("create rule commit failed", zap.Error(err))
		return RuleResponse{}, err
	}
	s.logger.Info("create rule success",
		zap.String("rule_id", draft.ID.String()),
		zap.String("company_id", companyID),
	)

	return mapToResponse(*draft), nil
}

func (s *service) ValidateDraft(ctx context.Context, companyID string, req CreateRuleRequest) (ValidationResult, error) {
	draft, err := buildRule(companyID, uuid.Nil.String(), req)
	if err != nil {
		return ValidationResult{}, err
	}
	return Validate(draft), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]RuleResponse, error) {
	rules, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rules), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (RuleResponse, error) {
	r, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RuleResponse{}, ruleerrors.ErrRuleNotFound
		}
		return RuleResponse{}, err
	}
	return mapToResponse(*r), nil
}

func buildRule(companyID, actorID string, req CreateRuleRequest) (*CommissionRule, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return nil, ruleerrors.ErrInvalidCompanyID
	}
	createdBy, err := uuid.Parse(actorID)
	if err != nil {
		return nil, ruleerrors.ErrInvalidActorID
	}

	validFrom, err := parseDate(req.ValidFrom)
	if err != nil {
		return nil, err
	}
	validUntil, err := parseDate(req.ValidUntil)
	if err != nil {
		return nil, err
	}

	r := &CommissionRule{
		ID:          uuid.New(),
		CompanyID:   companyUUID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		ValidFrom:   validFrom,
		ValidUntil:  validUntil,

		CalculationMethod: CalculationMethod(req.CalculationMethod),
		BaseRate:          req.BaseRate,

		TDSRate:      req.TDSRate,
		GSTRate:      req.GSTRate,
		GSTTreatment: GSTTreatment(req.GSTTreatment),

		PaymentSchedule:     ScheduleType(req.PaymentSchedule),
		PaymentDelayDays:    req.PaymentDelayDays,
		HoldPeriodDays:      req.HoldPeriodDays,
		MinimumPayoutAmount: req.MinimumPayoutAmount,

		RequiresApproval:      req.RequiresApproval,
		RequiredApprovalCount: req.RequiredApprovalCount,
		Approvers:             req.Approvers,

		ClawbackEligible:   req.ClawbackEligible,
		ClawbackPeriodDays: req.ClawbackPeriodDays,

		CreatedBy: createdBy,
	}
	if !r.RequiresApproval {
		r.RequiredApprovalCount = 0
	} else if r.RequiredApprovalCount == 0 {
		r.RequiredApprovalCount = 1
	}

	for _, t := range req.Tiers {
		r.Tiers = append(r.Tiers, Tier{
			MinSales: t.MinSales,
			MaxSales: t.MaxSales,
			Rate:     t.Rate,
		})
	}
	for _, ur := range req.UnitTypeRates {
		r.UnitTypeRates = append(r.UnitTypeRates, UnitTypeRate(ur))
	}
	for _, b := range req.BonusRules {
		from, err := parseDate(b.ValidFrom)
		if err != nil {
			return nil, err
		}
		until, err := parseDate(b.ValidUntil)
		if err != nil {
			return nil, err
		}
		r.BonusRules = append(r.BonusRules, BonusRule{
			Name:       b.Name,
			Condition:  b.Condition,
			Amount:     b.Amount,
			Rate:       b.Rate,
			ValidFrom:  from,
			ValidUntil: until,
		})
	}
	for _, d := range req.OtherDeductions {
		r.OtherDeductions = append(r.OtherDeductions, Deduction(d))
	}

	return r, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, ruleerrors.ErrInvalidDateFormat
	}
	return t, nil
}
