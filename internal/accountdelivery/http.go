// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/perit/credit-transfer/internal/domain"
	"github.com/perit/credit-transfer/pkg/errorspkg"
	"github.com/perit/credit-transfer/pkg/jsonresponse"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Create(ctx context.Context, iban, ownerName, balance string) (domain.Account, error)
	Get(ctx context.Context, iban string) (domain.Account, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) *Handler {
	return &Handler{
		service: as,
	}
}

type createRequest struct {
	IBAN      string `json:"iban" binding:"required,iban"`
	OwnerName string `json:"owner_name" binding:"required"`
	Balance   string `json:"balance" binding:"required"`
}

type getRequest struct {
	IBAN string `uri:"iban" binding:"required,iban"`
}

type data struct {
	Account domain.Account `json:"account"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// Create handles http request to create an account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	account, err := h.service.Create(ctx, req.IBAN, req.OwnerName, req.Balance)
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case domain.ErrIBANAlreadyExists:
			gctx.JSON(http.StatusConflict, jsonresponse.Error(err))

			return
		case domain.ErrInsufficientBalance:
			gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}

// Get handles http request to return the account with the given iban.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	account, err := h.service.Get(ctx, req.IBAN)
	if err != nil {
		l.Info().Err(err).Send()

		if err == domain.ErrAccountNotFound {
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}
