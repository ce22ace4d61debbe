package lectures

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// Handler exposes lecture endpoints. Routes are declared by the app
// router because comments and attendances nest under a lecture.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

type createLectureRequest struct {
	Name        string    `json:"name" validate:"required,min=3,max=200"`
	SubjectID   int64     `json:"subjectId" validate:"required,min=1"`
	ClassID     int64     `json:"classId" validate:"required,min=1"`
	ClassroomID *int64    `json:"classroomId" validate:"omitempty,min=1"`
	StartAt     time.Time `json:"startAt" validate:"required"`
	EndAt       time.Time `json:"endAt" validate:"required"`
}

type updateLectureRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=3,max=200"`
	SubjectID   *int64     `json:"subjectId" validate:"omitempty,min=1"`
	ClassID     *int64     `json:"classId" validate:"omitempty,min=1"`
	ClassroomID *int64     `json:"classroomId" validate:"omitempty,min=1"`
	StartAt     *time.Time `json:"startAt"`
	EndAt       *time.Time `json:"endAt"`
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
	id, err := httpx.PathID(r, "lectureID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lecture, err := h.service.Get(r.Context(), schoolID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lecture)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createLectureRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	lecture, err := h.service.Create(r.Context(), schoolID, CreateInput{
		Name:        req.Name,
		SubjectID:   req.SubjectID,
		ClassID:     req.ClassID,
		ClassroomID: req.ClassroomID,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lecture)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "lectureID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateLectureRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	lecture, err := h.service.Update(r.Context(), schoolID, id, UpdateInput{
		Name:        req.Name,
		SubjectID:   req.SubjectID,
		ClassID:     req.ClassID,
		ClassroomID: req.ClassroomID,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lecture)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	schoolID, err := httpx.PathID(r, "schoolID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "lectureID")
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
