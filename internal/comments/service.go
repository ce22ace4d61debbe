package comments

import (
	"context"
	"fmt"
	"strings"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/lectures"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// CreateInput carries the fields for a new comment.
type CreateInput struct {
	Title    string
	Post     string
	ParentID *int64
}

// UpdateInput carries the mutable comment fields. Nil means unchanged.
type UpdateInput struct {
	Title *string
	Post  *string
}

// Service orchestrates lecture comment threads.
type Service struct {
	repo     Repository
	lectures *lectures.Service
	policy   *acl.Policy[Comment]
}

// NewService constructs a Service.
func NewService(repo Repository, lectureSvc *lectures.Service) *Service {
	return &Service{repo: repo, lectures: lectureSvc, policy: NewPolicy()}
}

// List returns the lecture's comment thread.
func (s *Service) List(ctx context.Context, schoolID, lectureID int64, params shared.PageParams) ([]Comment, int, error) {
	if _, err := s.lectures.Find(ctx, schoolID, lectureID); err != nil {
		return nil, 0, err
	}
	if err := s.authorize(ctx, acl.ActionList, nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, schoolID, lectureID, params)
}

// Get returns one comment.
func (s *Service) Get(ctx context.Context, schoolID, lectureID, id int64) (Comment, error) {
	comment, err := s.repo.FindByID(ctx, schoolID, lectureID, id)
	if err != nil {
		return Comment{}, err
	}
	if err := s.authorize(ctx, acl.ActionRead, &comment); err != nil {
		return Comment{}, err
	}
	return comment, nil
}

// Create posts a comment, optionally as a reply to an existing one.
func (s *Service) Create(ctx context.Context, schoolID, lectureID int64, input CreateInput) (Comment, error) {
	if _, err := s.lectures.Find(ctx, schoolID, lectureID); err != nil {
		return Comment{}, err
	}
	if input.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, schoolID, lectureID, *input.ParentID); err != nil {
			return Comment{}, fmt.Errorf("%w: parent comment not found", httpx.ErrValidation)
		}
	}
	if err := s.authorize(ctx, acl.ActionCreate, nil); err != nil {
		return Comment{}, err
	}

	rc := shared.RequestContextFrom(ctx)
	actor, ok := rc.MemberActor()
	if !ok {
		// Global admins comment through a membership; without one there
		// is no author row to attach.
		return Comment{}, httpx.ErrForbidden
	}
	return s.repo.Create(ctx, Comment{
		SchoolID:  schoolID,
		LectureID: lectureID,
		ParentID:  input.ParentID,
		AuthorID:  actor.ID,
		Title:     strings.TrimSpace(input.Title),
		Post:      strings.TrimSpace(input.Post),
	})
}

// Update edits a comment. Only the author or a school admin may.
func (s *Service) Update(ctx context.Context, schoolID, lectureID, id int64, input UpdateInput) (Comment, error) {
	comment, err := s.repo.FindByID(ctx, schoolID, lectureID, id)
	if err != nil {
		return Comment{}, err
	}
	if err := s.authorize(ctx, acl.ActionUpdate, &comment); err != nil {
		return Comment{}, err
	}

	if input.Title != nil {
		comment.Title = strings.TrimSpace(*input.Title)
	}
	if input.Post != nil {
		comment.Post = strings.TrimSpace(*input.Post)
	}
	return s.repo.Update(ctx, comment)
}

// Delete soft-deletes a comment. Only the author or a school admin may.
func (s *Service) Delete(ctx context.Context, schoolID, lectureID, id int64) error {
	comment, err := s.repo.FindByID(ctx, schoolID, lectureID, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, acl.ActionDelete, &comment); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, schoolID, lectureID, id)
}

func (s *Service) authorize(ctx context.Context, action acl.Action, comment *Comment) error {
	rc := shared.RequestContextFrom(ctx)
	if rc.IsGlobalAdmin() {
		return nil
	}
	actor, ok := rc.MemberActor()
	if !ok {
		return httpx.ErrForbidden
	}
	allowed, err := s.policy.Can(ctx, actor, action, comment)
	if err != nil {
		return err
	}
	if !allowed {
		return httpx.ErrForbidden
	}
	return nil
}
