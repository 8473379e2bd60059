package rule_test

import (
	"context"
	"testing"
	"time"

	"estate-crm/internal/rule"
	ruleerrors "estate-crm/internal/rule/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeRuleRepository struct {
	createFn             func(ctx context.Context, r *rule.CommissionRule) error
	findByIDAndCompanyFn func(ctx context.Context, companyID, id string) (*rule.CommissionRule, error)
	findAllByCompanyFn   func(ctx context.Context, companyID string) ([]rule.CommissionRule, error)
	recordUsageFn        func(ctx context.Context, id string, amount decimal.Decimal, usedAt time.Time) error
}

func (f *fakeRuleRepository) WithTx(tx *gorm.DB) rule.Repository { return f }

func (f *fakeRuleRepository) Create(ctx context.Context, r *rule.CommissionRule) error {
	if f.createFn != nil {
		return f.createFn(ctx, r)
	}
	return nil
}

func (f *fakeRuleRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*rule.CommissionRule, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRuleRepository) FindAllByCompany(ctx context.Context, companyID string) ([]rule.CommissionRule, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeRuleRepository) RecordUsage(ctx context.Context, id string, amount decimal.Decimal, usedAt time.Time) error {
	if f.recordUsageFn != nil {
		return f.recordUsageFn(ctx, id, amount, usedAt)
	}
	return nil
}

type ruleServiceDeps struct {
	sqlMock sqlmock.Sqlmock
	service rule.Service
	repo    *fakeRuleRepository
}

func setupRuleServiceTest(t *testing.T) *ruleServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	assert.NoError(t, err)

	repo := &fakeRuleRepository{}
	return &ruleServiceDeps{
		sqlMock: sqlMock,
		service: rule.NewService(gormDB, repo),
		repo:    repo,
	}
}

func flatRuleRequest() rule.CreateRuleRequest {
	return rule.CreateRuleRequest{
		Name:              "standard flat",
		ValidFrom:         "2026-04-01",
		ValidUntil:        "2027-04-01",
		CalculationMethod: "flat",
		BaseRate:          decimal.RequireFromString("2.5"),
		PaymentSchedule:   "immediate",
	}
}

func TestRuleService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupRuleServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		var created *rule.CommissionRule
		deps.repo.createFn = func(ctx context.Context, r *rule.CommissionRule) error {
			created = r
			return nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, flatRuleRequest())

		assert.NoError(t, err)
		assert.Equal(t, "standard flat", resp.Name)
		assert.True(t, resp.IsActive)
		assert.Equal(t, "flat", resp.CalculationMethod)
		assert.Equal(t, "2026-04-01", resp.ValidFrom)
		assert.NotNil(t, created)
		assert.Equal(t, companyID, created.CompanyID.String())
		assert.Equal(t, actorID, created.CreatedBy.String())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("approval count defaults to one when approval is required", func(t *testing.T) {
		deps := setupRuleServiceTest(t)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		req := flatRuleRequest()
		req.RequiresApproval = true
		req.Approvers = []string{uuid.New().String()}

		resp, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.NoError(t, err)
		assert.Equal(t, 1, resp.RequiredApprovalCount)
	})

	t.Run("invalid draft refused before any write", func(t *testing.T) {
		deps := setupRuleServiceTest(t)

		req := flatRuleRequest()
		req.BaseRate = decimal.RequireFromString("150")

		createCalled := false
		deps.repo.createFn = func(ctx context.Context, r *rule.CommissionRule) error {
			createCalled = true
			return nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.ErrorIs(t, err, ruleerrors.ErrRuleInvalid)
		assert.False(t, createCalled)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("malformed date refused", func(t *testing.T) {
		deps := setupRuleServiceTest(t)

		req := flatRuleRequest()
		req.ValidFrom = "01/04/2026"

		_, err := deps.service.Create(ctx, companyID, actorID, req)
		assert.ErrorIs(t, err, ruleerrors.ErrInvalidDateFormat)
	})

	t.Run("bad company id refused", func(t *testing.T) {
		deps := setupRuleServiceTest(t)

		_, err := deps.service.Create(ctx, "not-a-uuid", actorID, flatRuleRequest())
		assert.ErrorIs(t, err, ruleerrors.ErrInvalidCompanyID)
	})
}

func TestRuleService_ValidateDraft(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("reports errors without persisting", func(t *testing.T) {
		deps := setupRuleServiceTest(t)

		req := flatRuleRequest()
		req.CalculationMethod = "tiered_volume"
		req.BaseRate = decimal.Zero

		res, err := deps.service.ValidateDraft(ctx, companyID, req)

		assert.NoError(t, err)
		assert.False(t, res.IsValid)
		assert.Contains(t, res.Errors, "tiered_volume rules need at least one tier")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("clean draft is valid", func(t *testing.T) {
		deps := setupRuleServiceTest(t)

		res, err := deps.service.ValidateDraft(ctx, companyID, flatRuleRequest())

		assert.NoError(t, err)
		assert.True(t, res.IsValid)
	})
}

func TestRuleService_GetByID(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("found", func(t *testing.T) {
		deps := setupRuleServiceTest(t)
		id := uuid.New()
		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, rid string) (*rule.CommissionRule, error) {
			return &rule.CommissionRule{
				ID:                id,
				CompanyID:         uuid.MustParse(companyID),
				Name:              "standard flat",
				CalculationMethod: rule.MethodFlat,
			}, nil
		}

		resp, err := deps.service.GetByID(ctx, companyID, id.String())
		assert.NoError(t, err)
		assert.Equal(t, id.String(), resp.ID)
	})

	t.Run("not found", func(t *testing.T) {
		deps := setupRuleServiceTest(t)
		_, err := deps.service.GetByID(ctx, companyID, uuid.New().String())
		assert.ErrorIs(t, err, ruleerrors.ErrRuleNotFound)
	})
}
