// Package carddelivery manages delivery layer of cards.
package carddelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/pkg/errorspkg"
	"github.com/go-pool/pool-bank/pkg/web"
)

// Service provides service layer interface needed by card delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package carddelivery
type Service interface {
	Register(ctx context.Context, accountID int64, maskedNo, brand string) (domain.Card, error)
	Get(ctx context.Context, id int64) (domain.Card, error)
	ListByAccount(ctx context.Context, accountID int64) ([]domain.Card, error)
	ChangeStatus(ctx context.Context, id int64, status domain.CardStatus) (domain.Card, error)
	Delete(ctx context.Context, id int64) error
}

// Handler facilitates card delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns card handler.
func NewHandler(cs Service) Handler {
	return Handler{service: cs}
}

type data struct {
	Card domain.Card `json:"card"`
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

type registerRequest struct {
	AccountID int64  `json:"account_id" binding:"required,min=1"`
	MaskedNo  string `json:"masked_no" binding:"required,min=4,max=25"`
	Brand     string `json:"brand" binding:"required,min=1,max=30"`
}

// Register handles http request to attach a card to an account.
func (h *Handler) Register(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req registerRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	card, err := h.service.Register(ctx, req.AccountID, req.MaskedNo, req.Brand)
	if err != nil {
		switch err {
		case domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case domain.ErrCardNumberAlreadyExists:
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{card}})
}

type cardURI struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type accountURI struct {
	AccountID int64 `uri:"id" binding:"required,min=1"`
}

type dataCards struct {
	Cards []domain.Card `json:"cards"`
}
type responseCards struct {
	Data dataCards `json:"data,omitempty"`
}

// ListByAccount handles http request to list an account's cards.
func (h *Handler) ListByAccount(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	cards, err := h.service.ListByAccount(ctx, uri.AccountID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	gctx.JSON(http.StatusOK, responseCards{Data: dataCards{cards}})
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required,cardstatus"`
}

// ChangeStatus handles http request to activate or block a card.
func (h *Handler) ChangeStatus(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri cardURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	var req changeStatusRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	card, err := h.service.ChangeStatus(ctx, uri.ID, domain.CardStatus(req.Status))
	if err != nil {
		if err == domain.ErrCardNotFound {
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{card}})
}

// Delete handles http request to remove a card that has no ledger history.
func (h *Handler) Delete(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri cardURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	if err := h.service.Delete(ctx, uri.ID); err != nil {
		switch err {
		case domain.ErrCardNotFound:
			gctx.JSON(http.StatusNotFound, web.Error(err))
			return
		case domain.ErrCardHasHistory:
			gctx.JSON(http.StatusConflict, web.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{})
}
