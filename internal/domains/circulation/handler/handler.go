package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"library-backend/internal/access"
	catalogModel "library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/circulation/model"
	"library-backend/internal/domains/circulation/service"
	"library-backend/internal/shared"
	"library-backend/internal/shared/middleware"
	"library-backend/internal/shared/response"
	"library-backend/pkg/cache"
	"library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Handler - HTTP Handler cho /loans
type Handler struct {
	lending  service.ServiceInterface
	policy   *access.Policy
	notifier shared.AvailabilityNotifier
	cache    cache.Cache
	nowFn    func() time.Time
}

// NewHandler - Constructor with DI
func NewHandler(lending service.ServiceInterface, policy *access.Policy, notifier shared.AvailabilityNotifier, cache cache.Cache) *Handler {
	return &Handler{
		lending:  lending,
		policy:   policy,
		notifier: notifier,
		cache:    cache,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// IssueLoan - POST /v1/loans
// Borrower là caller (lấy từ token)
func (h *Handler) IssueLoan(c *gin.Context) {
	borrowerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthenticated")
		return
	}

	var req model.IssueLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}
	itemID := uuid.MustParse(req.ItemID)

	now := h.nowFn()
	loan, err := h.lending.IssueCopy(c.Request.Context(), itemID, borrowerID, now)
	if err != nil {
		handleError(c, err)
		return
	}

	h.notifier.NotifyAvailabilityChanged(c.Request.Context(), itemID, shared.SourceIssue, c.GetString("request_id"))
	logger.Info("copy issued", map[string]interface{}{
		"loan_id":     loan.ID.String(),
		"item_id":     itemID.String(),
		"borrower_id": borrowerID.String(),
		"due_at":      loan.DueAt,
	})

	msg := fmt.Sprintf("Book issued successfully! Due date: %s", loan.DueAt.Format("2006-01-02"))
	response.SuccessWithMessage(c, http.StatusCreated, msg, loan.ToResponse(now))
}

// ReturnLoan - POST /v1/loans/:id/return
// Yêu cầu: staff/admin
func (h *Handler) ReturnLoan(c *gin.Context) {
	loanID, ok := parseLoanID(c)
	if !ok {
		return
	}

	now := h.nowFn()
	loan, err := h.lending.ReturnCopy(c.Request.Context(), loanID, now)
	if err != nil {
		handleError(c, err)
		return
	}

	h.notifier.NotifyAvailabilityChanged(c.Request.Context(), loan.ItemID, shared.SourceReturn, c.GetString("request_id"))
	logger.Info("copy returned", map[string]interface{}{
		"loan_id": loan.ID.String(),
		"item_id": loan.ItemID.String(),
		"fine":    loan.Fine.StringFixed(2),
	})

	response.SuccessWithMessage(c, http.StatusOK, model.ReturnMessage(loan.Fine), model.ReturnLoanResponse{
		Loan: loan.ToResponse(now),
		Fine: loan.Fine,
	})
}

// GetLoan - GET /v1/loans/:id
// Borrower chỉ xem được loan của chính mình
func (h *Handler) GetLoan(c *gin.Context) {
	loanID, ok := parseLoanID(c)
	if !ok {
		return
	}

	callerID, _ := middleware.GetUserID(c)
	role, _ := middleware.GetRole(c)

	loan, err := h.lending.GetLoan(c.Request.Context(), loanID)
	if err != nil {
		handleError(c, err)
		return
	}

	if !h.policy.CanViewLoan(role, callerID, loan.BorrowerID) {
		// không tiết lộ loan của người khác có tồn tại hay không
		response.NotFound(c, "Loan not found")
		return
	}

	response.Success(c, http.StatusOK, loan.ToResponse(h.nowFn()))
}

// ListMyLoans - GET /v1/loans/me?status=OUTSTANDING|RETURNED
func (h *Handler) ListMyLoans(c *gin.Context) {
	borrowerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthenticated")
		return
	}

	var req model.ListLoansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	loans, err := h.lending.ListBorrowerLoans(c.Request.Context(), borrowerID, req.StatusFilter())
	if err != nil {
		handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, model.ToResponseList(loans, h.nowFn()), &response.Meta{
		Total: len(loans),
	})
}

// ListOverdue - GET /v1/loans/overdue?limit=
// Yêu cầu: staff/admin
func (h *Handler) ListOverdue(c *gin.Context) {
	var req model.ListOverdueRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}
	limit := req.EffectiveLimit()

	now := h.nowFn()
	loans, err := h.lending.ListOverdue(c.Request.Context(), now, limit)
	if err != nil {
		handleError(c, err)
		return
	}

	rows := make([]model.OverdueLoan, 0, len(loans))
	for i := range loans {
		rows = append(rows, model.NewOverdueLoan(&loans[i], now))
	}

	response.SuccessWithMeta(c, http.StatusOK, rows, &response.Meta{
		Limit: limit,
		Total: len(rows),
	})
}

// OverdueSummary - GET /v1/loans/overdue/summary
// Trả snapshot do worker ghi; cache miss thì tính trực tiếp từ ledger
func (h *Handler) OverdueSummary(c *gin.Context) {
	ctx := c.Request.Context()

	var snapshot model.OverdueSnapshot
	found, err := h.cache.Get(ctx, model.OverdueSnapshotKey, &snapshot)
	if err != nil {
		logger.Warn("overdue snapshot cache read failed", map[string]interface{}{"error": err.Error()})
	}
	if err == nil && found {
		response.Success(c, http.StatusOK, snapshot)
		return
	}

	now := h.nowFn()
	loans, err := h.lending.ListOverdue(ctx, now, model.MaxOverdueLimit)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.NewOverdueSnapshot(loans, now))
}

func parseLoanID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid loan id")
		return uuid.Nil, false
	}
	return id, true
}

// handleError maps lending errors to HTTP responses
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalogModel.ErrItemNotFound):
		response.NotFound(c, "Book not found")
	case model.IsNotFoundError(err):
		response.NotFound(c, "Loan not found")
	case errors.Is(err, model.ErrItemUnavailable):
		response.Conflict(c, "ITEM_UNAVAILABLE", "Book not available!")
	case errors.Is(err, model.ErrDuplicateLoan):
		response.Conflict(c, "DUPLICATE_LOAN", "You already have this book issued!")
	case errors.Is(err, model.ErrAlreadyReturned):
		response.Conflict(c, "ALREADY_RETURNED", "Book already returned!")
	case errors.As(err, new(validation.Errors)):
		response.ValidationError(c, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ErrorResponse(c, http.StatusServiceUnavailable, "TIMEOUT", "request cancelled")
	default:
		logger.Error("circulation request failed", err)
		response.InternalServerError(c, "Internal server error")
	}
}
