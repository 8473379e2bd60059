package commission

import (
	"encoding/json"
	"net/http"
	"time"

	"estate-crm/internal/shared/apperror"
	"estate-crm/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	service Service
	rdb     *redis.Client
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func NewHandlerWithRedis(service Service, rdb *redis.Client) *Handler {
	return &Handler{service: service, rdb: rdb}
}

func getActorID(c *gin.Context) string {
	return c.GetString("user_id_validated")
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// releaseIdempotencyLock drops the in-flight lock; cacheResponse stores the
// final body so a retried request replays instead of re-executing.
func (h *Handler) releaseIdempotencyLock(c *gin.Context) {
	if h.rdb == nil {
		return
	}
	if lockKey, ok := c.Get("idempotency_lock_key"); ok {
		if lk, ok := lockKey.(string); ok && lk != "" {
			h.rdb.Del(c.Request.Context(), lk)
		}
	}
}

func (h *Handler) cacheResponse(c *gin.Context, resp any) {
	if h.rdb == nil {
		return
	}
	cacheKey, ok := c.Get("idempotency_cache_key")
	if !ok {
		return
	}
	ck, ok := cacheKey.(string)
	if !ok || ck == "" {
		return
	}
	if payload, err := json.Marshal(resp); err == nil {
		_ = h.rdb.Set(c.Request.Context(), ck, payload, 24*time.Hour).Err()
	}
}

func (h *Handler) Create(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	var req CreateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	resp, err := h.service.Create(c.Request.Context(), companyID, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheResponse(c, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	companyID := c.GetString("company_id")

	var q ListCommissionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	resp, total, err := h.service.GetAll(c.Request.Context(), companyID, q)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, q.Page, q.Limit)
	response.Success(c, http.StatusOK, resp, &meta)
}

func (h *Handler) GetById(c *gin.Context) {
	companyID := c.GetString("company_id")
	targetID := c.Param("id")

	resp, err := h.service.GetByID(c.Request.Context(), companyID, targetID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	targetID := c.Param("id")

	var req ApproveCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	resp, err := h.service.Approve(c.Request.Context(), companyID, actorID, targetID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	targetID := c.Param("id")

	var req RejectCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	resp, err := h.service.Reject(c.Request.Context(), companyID, actorID, targetID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	targetID := c.Param("id")

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	resp, err := h.service.RecordPayment(c.Request.Context(), companyID, actorID, targetID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Clawback(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	targetID := c.Param("id")

	var req ClawbackCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	resp, err := h.service.Clawback(c.Request.Context(), companyID, actorID, targetID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Recalculate(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	targetID := c.Param("id")

	var req RecalculateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	resp, err := h.service.Recalculate(c.Request.Context(), companyID, actorID, targetID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

// RecalculateForSale re-runs every open commission tied to a sale, e.g.
// after a price correction.
func (h *Handler) RecalculateForSale(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := getActorID(c)
	saleID := c.Param("id")

	var req RecalculateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	resp, err := h.service.RecalculateForSale(c.Request.Context(), companyID, actorID, saleID, req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) BulkApprove(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	var req BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	resp, err := h.service.BulkApprove(c.Request.Context(), companyID, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) BulkRecordPayments(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	companyID := c.GetString("company_id")
	actorID := getActorID(c)

	var req BulkRecordPaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	resp, err := h.service.BulkRecordPayments(c.Request.Context(), companyID, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}
