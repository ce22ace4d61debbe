package classes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// Handler exposes class and enrollment endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// Routes returns the /schools/{schoolID}/classes router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{classID}", h.Get)
	r.Patch("/{classID}", h.Update)
	r.Delete("/{classID}", h.Delete)
	r.Get("/{classID}/students", h.ListStudents)
	r.Post("/{classID}/students", h.Enroll)
	r.Delete("/{classID}/students/{userID}", h.Unenroll)
	return r
}

type createClassRequest struct {
	Name    string    `json:"name" validate:"required,max=200"`
	StartAt time.Time `json:"startAt" validate:"required"`
	EndAt   time.Time `json:"endAt" validate:"required"`
}

type updateClassRequest struct {
	Name    *string    `json:"name" validate:"omitempty,min=1,max=200"`
	StartAt *time.Time `json:"startAt"`
	EndAt   *time.Time `json:"endAt"`
}

type enrollStudentRequest struct {
	UserID int64 `json:"userId" validate:"required,min=1"`
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
	id, err := httpx.PathID(r, "classID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	class, err := h.service.Get(r.Context(), schoolID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, class)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createClassRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	class, err := h.service.Create(r.Context(), schoolID, CreateInput{
		Name:    req.Name,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, class)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "classID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateClassRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	class, err := h.service.Update(r.Context(), schoolID, id, UpdateInput{
		Name:    req.Name,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, class)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "classID")
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

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	classID, err := httpx.PathID(r, "classID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	params := shared.PageParamsFromRequest(r)
	list, total, err := h.service.ListStudents(r.Context(), schoolID, classID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, list, shared.NewPagination(params, total))
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	classID, err := httpx.PathID(r, "classID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req enrollStudentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	enrollment, err := h.service.Enroll(r.Context(), schoolID, classID, req.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, enrollment)
}

func (h *Handler) Unenroll(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	classID, err := httpx.PathID(r, "classID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	userID, err := httpx.PathID(r, "userID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Unenroll(r.Context(), schoolID, classID, userID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
