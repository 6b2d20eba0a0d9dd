package loan

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/moneyflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/moneyflow/internal/http/render"
	"github.com/MrJamesThe3rd/moneyflow/internal/loan"
	"github.com/MrJamesThe3rd/moneyflow/internal/pagination"
)

type Handler struct {
	svc *loan.Service
}

func NewHandler(svc *loan.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/payments", h.addPayment)
	r.Delete("/{id}/payments/{paymentId}", h.removePayment)
}

type createLoanRequest struct {
	Direction        string          `json:"direction" validate:"required,oneof=given received"`
	CounterpartyName string          `json:"counterpartyName" validate:"required,max=100"`
	PrincipalAmount  decimal.Decimal `json:"principalAmount" validate:"gt=0"`
	InterestRate     decimal.Decimal `json:"interestRate" validate:"gte=0,lte=100"`
	StartDate        string          `json:"startDate" validate:"required,date"`
	DueDate          string          `json:"dueDate" validate:"required,date"`
	Description      string          `json:"description" validate:"max=500"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	// Both dates passed the date validator.
	start, _ := render.ParseDate(req.StartDate)
	due, _ := render.ParseDate(req.DueDate)

	l, err := h.svc.Create(r.Context(), middleware.UserID(r), loan.CreateParams{
		Direction:        loan.Direction(req.Direction),
		CounterpartyName: req.CounterpartyName,
		PrincipalAmount:  req.PrincipalAmount,
		InterestRate:     req.InterestRate,
		StartDate:        start,
		DueDate:          due,
		Description:      req.Description,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(l, h.svc.Now()))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		render.Error(w, r, render.BadRequest("%s", err.Error()))
		return
	}

	filter := loan.ListFilter{Limit: page.Limit, Offset: page.Offset()}

	if s := r.URL.Query().Get("type"); s != "" {
		d := loan.Direction(s)
		if !d.Valid() {
			render.Error(w, r, render.BadRequest("type must be one of: given received"))
			return
		}

		filter.Direction = &d
	}

	if s := r.URL.Query().Get("status"); s != "" {
		st := loan.Status(s)
		if !st.Valid() {
			render.Error(w, r, render.BadRequest("status must be one of: active paid overdue"))
			return
		}

		filter.Status = &st
	}

	loans, total, err := h.svc.List(r.Context(), middleware.UserID(r), filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, listResponse{
		Data:       toResponseList(loans, h.svc.Now()),
		Pagination: pagination.NewResult(page, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		render.Error(w, r, loan.ErrNotFound)
		return
	}

	l, err := h.svc.Get(r.Context(), id, middleware.UserID(r))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(l, h.svc.Now()))
}

type updateLoanRequest struct {
	CounterpartyName *string          `json:"counterpartyName" validate:"omitempty,max=100"`
	PrincipalAmount  *decimal.Decimal `json:"principalAmount" validate:"omitempty,gt=0"`
	InterestRate     *decimal.Decimal `json:"interestRate" validate:"omitempty,gte=0,lte=100"`
	StartDate        *string          `json:"startDate" validate:"omitempty,date"`
	DueDate          *string          `json:"dueDate" validate:"omitempty,date"`
	Description      *string          `json:"description" validate:"omitempty,max=500"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		render.Error(w, r, loan.ErrNotFound)
		return
	}

	var req updateLoanRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	params := loan.UpdateParams{
		CounterpartyName: req.CounterpartyName,
		PrincipalAmount:  req.PrincipalAmount,
		InterestRate:     req.InterestRate,
		Description:      req.Description,
	}

	if req.StartDate != nil {
		start, _ := render.ParseDate(*req.StartDate)
		params.StartDate = &start
	}

	if req.DueDate != nil {
		due, _ := render.ParseDate(*req.DueDate)
		params.DueDate = &due
	}

	l, err := h.svc.Update(r.Context(), id, middleware.UserID(r), params)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(l, h.svc.Now()))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		render.Error(w, r, loan.ErrNotFound)
		return
	}

	if err := h.svc.Delete(r.Context(), id, middleware.UserID(r)); err != nil {
		render.Error(w, r, err)
		return
	}

	render.Message(w, http.StatusOK, "Loan deleted successfully")
}

type addPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Date   string          `json:"date" validate:"required,date"`
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		render.Error(w, r, loan.ErrNotFound)
		return
	}

	var req addPaymentRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	date, _ := render.ParseDate(req.Date)

	l, err := h.svc.AddPayment(r.Context(), id, middleware.UserID(r), loan.PaymentParams{
		Amount: req.Amount,
		Date:   date,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(l, h.svc.Now()))
}

func (h *Handler) removePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		render.Error(w, r, loan.ErrNotFound)
		return
	}

	paymentID, ok := pathID(r, "paymentId")
	if !ok {
		// Same outcome as an unknown payment on an existing loan.
		paymentID = uuid.Nil
	}

	l, err := h.svc.RemovePayment(r.Context(), id, middleware.UserID(r), paymentID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(l, h.svc.Now()))
}

// pathID parses a uuid path parameter. Malformed ids are reported as not found.
func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}
