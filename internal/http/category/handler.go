package category

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/moneyflow/internal/category"
	"github.com/MrJamesThe3rd/moneyflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/moneyflow/internal/http/render"
)

type Handler struct {
	svc *category.Service
}

func NewHandler(svc *category.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createCategoryRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Icon  string `json:"icon" validate:"required,max=64"`
	Color string `json:"color" validate:"required,hexcolor"`
	Type  string `json:"type" validate:"required,oneof=income expense"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	c, err := h.svc.Create(r.Context(), middleware.UserID(r), category.CreateParams{
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
		Type:  category.Type(req.Type),
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := category.ListFilter{}

	if s := r.URL.Query().Get("type"); s != "" {
		t := category.Type(s)
		if !t.Valid() {
			render.Error(w, r, render.BadRequest("type must be one of: income expense"))
			return
		}

		filter.Type = &t
	}

	categories, err := h.svc.List(r.Context(), middleware.UserID(r), filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponseList(categories))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, r, category.ErrNotFound)
		return
	}

	c, err := h.svc.Get(r.Context(), id, middleware.UserID(r))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(c))
}

type updateCategoryRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=50"`
	Icon  *string `json:"icon" validate:"omitempty,max=64"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
	Type  *string `json:"type" validate:"omitempty,oneof=income expense"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, r, category.ErrNotFound)
		return
	}

	var req updateCategoryRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	params := category.UpdateParams{
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
	}

	if req.Type != nil {
		typ := category.Type(*req.Type)
		params.Type = &typ
	}

	c, err := h.svc.Update(r.Context(), id, middleware.UserID(r), params)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Error(w, r, category.ErrNotFound)
		return
	}

	if err := h.svc.Delete(r.Context(), id, middleware.UserID(r)); err != nil {
		render.Error(w, r, err)
		return
	}

	render.Message(w, http.StatusOK, "Category deleted successfully")
}
