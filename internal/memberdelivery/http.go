// Package memberdelivery manages delivery layer of group wallet membership.
package memberdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/internal/middleware"
	"github.com/go-pool/pool-bank/pkg/errorspkg"
	"github.com/go-pool/pool-bank/pkg/tokenpkg"
	"github.com/go-pool/pool-bank/pkg/web"
)

// Service provides service layer interface needed by membership delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package memberdelivery
type Service interface {
	AddMemberByEmail(ctx context.Context, accountID, actingUserID int64, email string) (domain.GroupMember, error)
	ChangeRole(ctx context.Context, accountID, actingUserID, targetUserID int64, newRole domain.Role) (domain.GroupMember, error)
	RemoveMember(ctx context.Context, accountID, actingUserID, targetUserID int64) error
	List(ctx context.Context, accountID int64) ([]domain.GroupMember, error)
}

// Handler facilitates membership delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns membership handler.
func NewHandler(ms Service) Handler {
	return Handler{service: ms}
}

type data struct {
	Member domain.GroupMember `json:"member"`
}
type response struct {
	Data data `json:"data,omitempty"`
}

type accountURI struct {
	AccountID int64 `uri:"id" binding:"required,min=1"`
}

type memberURI struct {
	AccountID int64 `uri:"id" binding:"required,min=1"`
	UserID    int64 `uri:"userID" binding:"required,min=1"`
}

func bindErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		field := ve[0]
		return field.Field() + web.GetErrorMsg(field)
	}

	return ""
}

func writeMembershipError(gctx *gin.Context, err error) {
	switch err {
	case domain.ErrAccountNotFound, domain.ErrUserNotFound, domain.ErrMemberNotFound:
		gctx.JSON(http.StatusNotFound, web.Error(err))
		return
	case domain.ErrNotAMember, domain.ErrForbidden:
		gctx.JSON(http.StatusForbidden, web.Error(domain.ErrForbidden))
		return
	case domain.ErrAlreadyMember:
		gctx.JSON(http.StatusConflict, web.Error(err))
		return
	case domain.ErrNoOpRoleChange, domain.ErrInvalidRole:
		gctx.JSON(http.StatusBadRequest, web.Error(err))
		return
	case domain.ErrLastOwnerProtected:
		gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
		return
	case domain.ErrTxBusy:
		gctx.JSON(http.StatusConflict, web.Error(err))
		return
	}

	gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
}

type addMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Add handles http request to add a member to a group wallet by email.
func (h *Handler) Add(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	var req addMemberRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	member, err := h.service.AddMemberByEmail(ctx, uri.AccountID, authPayload.UserID, req.Email)
	if err != nil {
		writeMembershipError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{member}})
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

// ChangeRole handles http request to change a member's role.
func (h *Handler) ChangeRole(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri memberURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	var req changeRoleRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	member, err := h.service.ChangeRole(ctx, uri.AccountID, authPayload.UserID, uri.UserID, role)
	if err != nil {
		writeMembershipError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{member}})
}

// Remove handles http request to remove a member from a group wallet.
func (h *Handler) Remove(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri memberURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	if err := h.service.RemoveMember(ctx, uri.AccountID, authPayload.UserID, uri.UserID); err != nil {
		writeMembershipError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{})
}

type dataMembers struct {
	Members []domain.GroupMember `json:"members"`
}
type responseMembers struct {
	Data dataMembers `json:"data,omitempty"`
}

// List handles http request to list a group wallet's members.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindErrorMsg(err)})

		return
	}

	members, err := h.service.List(ctx, uri.AccountID)
	if err != nil {
		writeMembershipError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, responseMembers{Data: dataMembers{members}})
}
