package attendance

import (
	"net/http"

	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// Handler exposes the attendance sheet and the self-service check endpoint.
// Routes are declared by the app router under a lecture.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
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
	id, err := httpx.PathID(r, "attendanceID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	record, err := h.service.Get(r.Context(), schoolID, lectureID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

// Check advances the caller's own record: first call inside the check-in
// window stamps arrival, next call inside the check-out window stamps
// departure.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	schoolID, lectureID, err := pathIDs(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	record, err := h.service.Check(r.Context(), schoolID, lectureID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}
