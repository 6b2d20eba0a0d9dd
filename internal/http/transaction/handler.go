package transaction

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/moneyflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/moneyflow/internal/http/render"
	"github.com/MrJamesThe3rd/moneyflow/internal/pagination"
	"github.com/MrJamesThe3rd/moneyflow/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Type        string          `json:"type" validate:"required,oneof=income expense"`
	CategoryID  *string         `json:"categoryId" validate:"omitempty,uuid"`
	Description string          `json:"description" validate:"required,max=500"`
	Date        string          `json:"date" validate:"required,date"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	date, _ := render.ParseDate(req.Date)

	tx, err := h.svc.Create(r.Context(), middleware.UserID(r), transaction.CreateParams{
		Amount:      req.Amount,
		Type:        transaction.Type(req.Type),
		CategoryID:  parseOptionalID(req.CategoryID),
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		render.Error(w, r, render.BadRequest("%s", err.Error()))
		return
	}

	filter := transaction.ListFilter{Limit: page.Limit, Offset: page.Offset()}

	if s := r.URL.Query().Get("type"); s != "" {
		t := transaction.Type(s)
		if !t.Valid() {
			render.Error(w, r, render.BadRequest("type must be one of: income expense"))
			return
		}

		filter.Type = &t
	}

	if s := r.URL.Query().Get("category"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			render.Error(w, r, render.BadRequest("category must be a UUID"))
			return
		}

		filter.CategoryID = &id
	}

	if filter.StartDate, err = render.ParseDateParam(r, "startDate"); err != nil {
		render.Error(w, r, err)
		return
	}

	if filter.EndDate, err = render.ParseDateParam(r, "endDate"); err != nil {
		render.Error(w, r, err)
		return
	}

	txs, total, err := h.svc.List(r.Context(), middleware.UserID(r), filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, listResponse{
		Data:       toResponseList(txs),
		Pagination: pagination.NewResult(page, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, r, transaction.ErrNotFound)
		return
	}

	tx, err := h.svc.Get(r.Context(), id, middleware.UserID(r))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, r, transaction.ErrNotFound)
		return
	}

	if err := h.svc.Delete(r.Context(), id, middleware.UserID(r)); err != nil {
		render.Error(w, r, err)
		return
	}

	render.Message(w, http.StatusOK, "Transaction deleted successfully")
}

type updateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	Type        *string          `json:"type" validate:"omitempty,oneof=income expense"`
	CategoryID  *string          `json:"categoryId" validate:"omitempty,uuid"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Date        *string          `json:"date" validate:"omitempty,date"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, r, transaction.ErrNotFound)
		return
	}

	var req updateTransactionRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	params := transaction.UpdateParams{
		Amount:      req.Amount,
		CategoryID:  parseOptionalID(req.CategoryID),
		Description: req.Description,
	}

	if req.Type != nil {
		typ := transaction.Type(*req.Type)
		params.Type = &typ
	}

	if req.Date != nil {
		date, _ := render.ParseDate(*req.Date)
		params.Date = &date
	}

	tx, err := h.svc.Update(r.Context(), id, middleware.UserID(r), params)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(tx))
}

// parseOptionalID converts an already validated optional uuid string.
func parseOptionalID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}

	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}

	return &id
}
