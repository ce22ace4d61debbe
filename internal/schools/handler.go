package schools

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// Handler exposes tenant endpoints. Routes are mounted by the app router
// because the school subtree nests every other resource under it.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

type createSchoolRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	FantasyName string `json:"fantasyName" validate:"required,max=200"`
	TaxID       string `json:"taxId" validate:"required,min=14,max=14"`
	Address     string `json:"address" validate:"required,max=200"`
	City        string `json:"city" validate:"required,max=200"`
	State       string `json:"state" validate:"required,len=2"`
}

type updateSchoolRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	FantasyName *string `json:"fantasyName" validate:"omitempty,min=1,max=200"`
	Address     *string `json:"address" validate:"omitempty,max=200"`
	City        *string `json:"city" validate:"omitempty,max=200"`
	State       *string `json:"state" validate:"omitempty,len=2"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := shared.PageParamsFromRequest(r)
	list, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, list, shared.NewPagination(params, total))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	school, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, school)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSchoolRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	school, err := h.service.Create(r.Context(), CreateInput{
		Name:        req.Name,
		FantasyName: req.FantasyName,
		TaxID:       req.TaxID,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, school)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateSchoolRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	school, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:        req.Name,
		FantasyName: req.FantasyName,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, school)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
