// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/perit/credit-transfer/internal/domain"
	"github.com/perit/credit-transfer/pkg/errorspkg"
	"github.com/perit/credit-transfer/pkg/jsonresponse"
)

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Save(ctx context.Context, arg domain.CreateTransferParams) (int64, error)
	Execute(ctx context.Context, id int64) (domain.Transfer, error)
	Get(ctx context.Context, id int64) (domain.Transfer, error)
	List(ctx context.Context) ([]domain.Transfer, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type bookRequest struct {
	DebitorIBAN  string `json:"debitor_iban" binding:"required,iban"`
	CreditorIBAN string `json:"creditor_iban" binding:"required,iban"`
	Amount       string `json:"amount" binding:"required"`
}

type idRequest struct {
	ID int64 `uri:"id" binding:"required,min=1"`
}

type bookData struct {
	ID int64 `json:"id"`
}

type bookResponse struct {
	Data bookData `json:"data,omitempty"`
}

type data struct {
	Transfer domain.Transfer `json:"transfer"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

type listData struct {
	Transfers []domain.Transfer `json:"transfers"`
}

type listResponse struct {
	Data listData `json:"data,omitempty"`
}

// Book handles http request to book a transfer between two accounts.
func (h *Handler) Book(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req bookRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	arg := domain.CreateTransferParams{
		DebitorIBAN:  req.DebitorIBAN,
		CreditorIBAN: req.CreditorIBAN,
		Amount:       req.Amount,
	}

	id, err := h.service.Save(ctx, arg)
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case
			domain.ErrInvalidAmount,
			domain.ErrNegativeAmount:
			gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, bookResponse{Data: bookData{ID: id}})
}

// Execute handles http request to execute a booked transfer.
//
// The finalized transfer row is returned alongside the error body, so a
// failed execution still shows its durable FAILED record.
func (h *Handler) Execute(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	transfer, err := h.service.Execute(ctx, req.ID)
	if err != nil {
		l.Info().Err(err).Send()

		code := statusCode(err)
		if code == http.StatusInternalServerError {
			err = errorspkg.ErrInternal
		}

		gctx.JSON(code, jsonresponse.Error(err))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{transfer}})
}

// Get handles http request to return the transfer with the given id.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req idRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	transfer, err := h.service.Get(ctx, req.ID)
	if err != nil {
		l.Info().Err(err).Send()

		code := statusCode(err)
		if code == http.StatusInternalServerError {
			err = errorspkg.ErrInternal
		}

		gctx.JSON(code, jsonresponse.Error(err))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{transfer}})
}

// List handles http request to return all transfers.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	transfers, err := h.service.List(ctx)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, listResponse{Data: listData{Transfers: transfers}})
}

func statusCode(err error) int {
	switch err {
	case
		domain.ErrTransferNotFound,
		domain.ErrAccountNotFound:
		return http.StatusNotFound
	case
		domain.ErrInvalidAmount,
		domain.ErrNegativeAmount,
		domain.ErrInsufficientBalance:
		return http.StatusBadRequest
	case
		domain.ErrOptimisticConflict,
		domain.ErrTransferFinalized:
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}
