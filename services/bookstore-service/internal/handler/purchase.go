package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/payload"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/usecase"
)

type PurchaseHandler struct {
	purchaseUsecase usecase.PurchaseUsecase
	logger          *zerolog.Logger
}

func NewPurchaseHandler(purchaseUsecase usecase.PurchaseUsecase, logger *zerolog.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseUsecase: purchaseUsecase,
		logger:          logger,
	}
}

// RegisterRoutes mounts the purchase endpoints. All of them require authentication.
func (h *PurchaseHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Use(requireAuth)
	r.Get("/", h.History)
	r.Post("/{bookId}", h.Buy)
}

func (h *PurchaseHandler) Buy(w http.ResponseWriter, r *http.Request) {
	callerID, ok := userID(w, r)
	if !ok {
		return
	}

	purchase, err := h.purchaseUsecase.Buy(r.Context(), chi.URLParam(r, "bookId"), callerID)
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.Response{
		Success: true,
		Message: "Purchase successful",
		Data:    payload.NewPurchaseResponse(purchase),
	})
}

func (h *PurchaseHandler) History(w http.ResponseWriter, r *http.Request) {
	callerID, ok := userID(w, r)
	if !ok {
		return
	}

	records, err := h.purchaseUsecase.History(r.Context(), callerID)
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.List(payload.NewPurchaseRecordResponses(records)))
}
