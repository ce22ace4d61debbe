package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/akademos/akademos/internal/attendance"
	"github.com/akademos/akademos/internal/auth"
	"github.com/akademos/akademos/internal/classes"
	"github.com/akademos/akademos/internal/classrooms"
	"github.com/akademos/akademos/internal/comments"
	"github.com/akademos/akademos/internal/lectures"
	"github.com/akademos/akademos/internal/members"
	"github.com/akademos/akademos/internal/observability"
	"github.com/akademos/akademos/internal/schools"
	"github.com/akademos/akademos/internal/subjects"
	"github.com/akademos/akademos/internal/users"
	"github.com/akademos/akademos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	JobsHandler *jobs.Handler

	AuthHandler *auth.Handler
	AuthMW      *auth.Middleware

	UsersHandler      *users.Handler
	SchoolsHandler    *schools.Handler
	MembersHandler    *members.Handler
	ClassroomsHandler *classrooms.Handler
	SubjectsHandler   *subjects.Handler
	ClassesHandler    *classes.Handler
	LecturesHandler   *lectures.Handler
	AttendanceHandler *attendance.Handler
	CommentsHandler   *comments.Handler
}

// NewRouter constructs the chi.Router with Akademos defaults. Everything
// under /v1 except /v1/auth requires a bearer token; everything under
// /v1/schools/{schoolID} additionally runs school-scope resolution.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/auth", params.AuthHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMW.Authenticate)

			r.Mount("/users", params.UsersHandler.Routes())

			if params.JobsHandler != nil {
				r.Route("/jobs", params.JobsHandler.MountRoutes)
			}

			r.Route("/schools", func(r chi.Router) {
				r.Get("/", params.SchoolsHandler.List)
				r.Post("/", params.SchoolsHandler.Create)

				r.Route("/{schoolID}", func(r chi.Router) {
					r.Use(params.AuthMW.SchoolScope)

					r.Get("/", params.SchoolsHandler.Get)
					r.Patch("/", params.SchoolsHandler.Update)
					r.Delete("/", params.SchoolsHandler.Delete)

					r.Mount("/members", params.MembersHandler.Routes())
					r.Mount("/classrooms", params.ClassroomsHandler.Routes())
					r.Mount("/subjects", params.SubjectsHandler.Routes())
					r.Mount("/classes", params.ClassesHandler.Routes())

					r.Route("/lectures", func(r chi.Router) {
						r.Get("/", params.LecturesHandler.List)
						r.Post("/", params.LecturesHandler.Create)

						r.Route("/{lectureID}", func(r chi.Router) {
							r.Get("/", params.LecturesHandler.Get)
							r.Patch("/", params.LecturesHandler.Update)
							r.Delete("/", params.LecturesHandler.Delete)

							r.Mount("/comments", params.CommentsHandler.Routes())

							r.Get("/attendances", params.AttendanceHandler.List)
							r.Get("/attendances/{attendanceID}", params.AttendanceHandler.Get)
							r.Post("/attendances/check", params.AttendanceHandler.Check)
						})
					})
				})
			})
		})
	})

	return r
}
