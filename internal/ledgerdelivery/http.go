// Package ledgerdelivery manages delivery layer of ledger operations.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/internal/middleware"
	"github.com/go-pool/pool-bank/pkg/errorspkg"
	"github.com/go-pool/pool-bank/pkg/moneypkg"
	"github.com/go-pool/pool-bank/pkg/tokenpkg"
	"github.com/go-pool/pool-bank/pkg/web"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	Income(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error)
	Expense(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error)
	CardExpense(ctx context.Context, arg domain.CreateCardExpenseParams) (domain.Entry, error)
	Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error)
	Search(ctx context.Context, userID int64, arg domain.SearchEntriesParams) ([]domain.Entry, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(ls Service) Handler {
	return Handler{service: ls}
}

type data struct {
	Entry domain.Entry `json:"entry"`
}
type response struct {
	Data data `json:"data,omitempty"`
}

func bindErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		field := ve[0]
		return field.Field() + web.GetErrorMsg(field)
	}

	return ""
}

type entryRequest struct {
	AccountID  int64      `json:"account_id" binding:"required,min=1"`
	Amount     string     `json:"amount" binding:"required"`
	Memo       *string    `json:"memo"`
	OccurredAt *time.Time `json:"occurred_at"`
}

// Income handles http request to record an income on an account.
func (h *Handler) Income(gctx *gin.Context) {
	h.entry(gctx, h.service.Income)
}

// Expense handles http request to record an expense on an account.
func (h *Handler) Expense(gctx *gin.Context) {
	h.entry(gctx, h.service.Expense)
}

func (h *Handler) entry(gctx *gin.Context, op func(context.Context, domain.CreateEntryParams) (domain.Entry, error)) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req entryRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	amount, err := moneypkg.ParseAmount(req.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	entry, err := op(ctx, domain.CreateEntryParams{
		AccountID:  req.AccountID,
		Amount:     amount,
		Memo:       req.Memo,
		OccurredAt: req.OccurredAt,
		CreatedBy:  authPayload.UserID,
	})
	if err != nil {
		switch err {
		case domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case domain.ErrInvalidAmount:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		case domain.ErrInsufficientBalance:
			gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
			return
		case domain.ErrTxBusy:
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{entry}})
}

type cardExpenseRequest struct {
	CardID     int64      `json:"card_id" binding:"required,min=1"`
	Amount     string     `json:"amount" binding:"required"`
	Memo       *string    `json:"memo"`
	OccurredAt *time.Time `json:"occurred_at"`
}

// CardExpense handles http request to record a card expense.
func (h *Handler) CardExpense(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req cardExpenseRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	amount, err := moneypkg.ParseAmount(req.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	entry, err := h.service.CardExpense(ctx, domain.CreateCardExpenseParams{
		CardID:     req.CardID,
		Amount:     amount,
		Memo:       req.Memo,
		OccurredAt: req.OccurredAt,
		CreatedBy:  authPayload.UserID,
	})
	if err != nil {
		switch err {
		case domain.ErrCardNotFound, domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case domain.ErrInvalidAmount:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		case domain.ErrCardBlocked, domain.ErrInsufficientBalance:
			gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
			return
		case domain.ErrTxBusy:
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{entry}})
}

type transferRequest struct {
	FromAccountID int64   `json:"from_account_id" binding:"required,min=1"`
	ToAccountID   int64   `json:"to_account_id" binding:"required,min=1"`
	Amount        string  `json:"amount" binding:"required"`
	Memo          *string `json:"memo"`
}

type transferData struct {
	Transfer domain.TransferTxResult `json:"transfer"`
}
type transferResponse struct {
	Data transferData `json:"data,omitempty"`
}

// Transfer handles http request to move money between two accounts.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req transferRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	amount, err := moneypkg.ParseAmount(req.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	result, err := h.service.Transfer(ctx, domain.CreateTransferParams{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		Memo:          req.Memo,
		CreatedBy:     authPayload.UserID,
	})
	if err != nil {
		switch err {
		case domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case domain.ErrInvalidAmount, domain.ErrSameAccountTransfer:
			gctx.JSON(http.StatusBadRequest, web.Error(err))
			return
		case domain.ErrInsufficientBalance:
			gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
			return
		case domain.ErrTxBusy:
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, transferResponse{Data: transferData{result}})
}

type searchRequest struct {
	AccountID *int64 `form:"account_id"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
	MinAmount string `form:"min_amount"`
	MaxAmount string `form:"max_amount"`
	Limit     int32  `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset    int32  `form:"offset" binding:"omitempty,min=0"`
}

type dataEntries struct {
	Entries []domain.Entry `json:"entries"`
}
type responseEntries struct {
	Data dataEntries `json:"data,omitempty"`
}

// Search handles http request to search ledger entries visible to the caller.
func (h *Handler) Search(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req searchRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	arg := domain.SearchEntriesParams{
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	if req.AccountID != nil {
		arg.AccountIDs = []int64{*req.AccountID}
	}

	if req.DateFrom != "" {
		t, err := time.Parse(time.RFC3339, req.DateFrom)
		if err != nil {
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, web.Response{Error: "date_from must be RFC3339"})

			return
		}

		arg.DateFrom = &t
	}

	if req.DateTo != "" {
		t, err := time.Parse(time.RFC3339, req.DateTo)
		if err != nil {
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, web.Response{Error: "date_to must be RFC3339"})

			return
		}

		arg.DateTo = &t
	}

	if req.MinAmount != "" {
		v, err := moneypkg.ParseAmount(req.MinAmount)
		if err != nil {
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, web.Error(err))

			return
		}

		arg.MinAmount = &v
	}

	if req.MaxAmount != "" {
		v, err := moneypkg.ParseAmount(req.MaxAmount)
		if err != nil {
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, web.Error(err))

			return
		}

		arg.MaxAmount = &v
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	entries, err := h.service.Search(ctx, authPayload.UserID, arg)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	gctx.JSON(http.StatusOK, responseEntries{Data: dataEntries{entries}})
}
