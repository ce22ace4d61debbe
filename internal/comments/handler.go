package comments

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// Handler exposes lecture comment endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// Routes returns the /schools/{schoolID}/lectures/{lectureID}/comments router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{commentID}", h.Get)
	r.Patch("/{commentID}", h.Update)
	r.Delete("/{commentID}", h.Delete)
	return r
}

type createCommentRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Post     string `json:"post" validate:"required"`
	ParentID *int64 `json:"parentId" validate:"omitempty,min=1"`
}

type updateCommentRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=200"`
	Post  *string `json:"post" validate:"omitempty,min=1"`
}

func pathIDs(r *http.Request) (schoolID, lectureID int64, err error) {
	schoolID, err = httpx.PathID(r, "schoolID")
	if err != nil {
		return 0, 0, err
	}
	lectureID, err = httpx.PathID(r, "lectureID")
	if err != nil {
		return 0, 0, err
	}
	return schoolID, lectureID, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	schoolID, lectureID, err := pathIDs(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	params := shared.PageParamsFromRequest(r)
	list, total, err := h.service.List(r.Context(), schoolID, lectureID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, list, shared.NewPagination(params, total))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	schoolID, lectureID, err := pathIDs(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "commentID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	comment, err := h.service.Get(r.Context(), schoolID, lectureID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comment)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	schoolID, lectureID, err := pathIDs(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createCommentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	comment, err := h.service.Create(r.Context(), schoolID, lectureID, CreateInput{
		Title:    req.Title,
		Post:     req.Post,
		ParentID: req.ParentID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, comment)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	schoolID, lectureID, err := pathIDs(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "commentID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateCommentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	comment, err := h.service.Update(r.Context(), schoolID, lectureID, id, UpdateInput{
		Title: req.Title,
		Post:  req.Post,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comment)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	schoolID, lectureID, err := pathIDs(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "commentID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), schoolID, lectureID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
