package classrooms

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// Handler exposes classroom endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// Routes returns the /schools/{schoolID}/classrooms router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{classroomID}", h.Get)
	r.Patch("/{classroomID}", h.Update)
	r.Delete("/{classroomID}", h.Delete)
	return r
}

type createClassroomRequest struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,longitude"`
	LocationRadius *int     `json:"locationRadius" validate:"omitempty,min=1,max=1000"`
}

type updateClassroomRequest struct {
	Name           *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,longitude"`
	LocationRadius *int     `json:"locationRadius" validate:"omitempty,min=1,max=1000"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	params := shared.PageParamsFromRequest(r)
	list, total, err := h.service.List(r.Context(), schoolID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, list, shared.NewPagination(params, total))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "classroomID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	room, err := h.service.Get(r.Context(), schoolID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, room)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createClassroomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	room, err := h.service.Create(r.Context(), schoolID, CreateInput{
		Name:           req.Name,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		LocationRadius: req.LocationRadius,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, room)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "classroomID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateClassroomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	room, err := h.service.Update(r.Context(), schoolID, id, UpdateInput{
		Name:           req.Name,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		LocationRadius: req.LocationRadius,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, room)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "classroomID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), schoolID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
