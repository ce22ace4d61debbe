package members

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
	"github.com/akademos/akademos/internal/users"
)

type memoryRepo struct {
	members map[int64]Member
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{members: make(map[int64]Member)}
}

func (r *memoryRepo) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Member, int, error) {
	var out []Member
	for _, m := range r.members {
		if m.SchoolID == schoolID {
			out = append(out, m)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) FindByID(ctx context.Context, schoolID, id int64) (Member, error) {
	m, ok := r.members[id]
	if !ok || m.SchoolID != schoolID {
		return Member{}, httpx.ErrNotFound
	}
	return m, nil
}

func (r *memoryRepo) FindByUser(ctx context.Context, schoolID, userID int64) (Member, error) {
	for _, m := range r.members {
		if m.SchoolID == schoolID && m.UserID == userID {
			return m, nil
		}
	}
	return Member{}, httpx.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, member Member) (Member, error) {
	r.nextID++
	member.ID = r.nextID
	r.members[member.ID] = member
	return member, nil
}

func (r *memoryRepo) Delete(ctx context.Context, schoolID, userID int64) error {
	for id, m := range r.members {
		if m.SchoolID == schoolID && m.UserID == userID {
			delete(r.members, id)
			return nil
		}
	}
	return httpx.ErrNotFound
}

type fakeUserRepo struct {
	byEmail map[string]users.User
	nextID  int64
}

func (r *fakeUserRepo) List(ctx context.Context, params shared.PageParams) ([]users.User, int, error) {
	return nil, 0, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (users.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, httpx.ErrNotFound
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (users.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return users.User{}, httpx.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, u users.User) (users.User, error) {
	r.nextID++
	u.ID = r.nextID + 100
	if r.byEmail == nil {
		r.byEmail = make(map[string]users.User)
	}
	r.byEmail[u.Email] = u
	return u, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, u users.User) (users.User, error) {
	return u, nil
}

func (r *fakeUserRepo) SoftDelete(ctx context.Context, id int64) error { return nil }

type recordingInvites struct {
	sent []string
}

func (r *recordingInvites) SendInvite(ctx context.Context, email, firstName string) error {
	r.sent = append(r.sent, email)
	return nil
}

func memberCtx(role acl.Role) context.Context {
	schoolID := int64(1)
	return shared.WithRequestContext(context.Background(), &shared.RequestContext{
		SchoolID: &schoolID,
		User: &shared.UserClaims{
			ID:   900,
			Role: acl.RoleUser,
			Member: &shared.MemberClaims{
				ID:       77,
				SchoolID: 1,
				UserID:   900,
				Role:     role,
			},
		},
	})
}

func TestCreateRejectsRoleAboveOwn(t *testing.T) {
	svc := NewService(newMemoryRepo(), users.NewService(&fakeUserRepo{}), nil)

	_, err := svc.Create(memberCtx(acl.RoleFaculty), 1, CreateInput{
		FirstName: "New",
		LastName:  "Admin",
		Email:     "admin@school.test",
		Role:      acl.RoleAdmin,
	})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateRejectsInvalidRole(t *testing.T) {
	svc := NewService(newMemoryRepo(), users.NewService(&fakeUserRepo{}), nil)

	_, err := svc.Create(memberCtx(acl.RoleFaculty), 1, CreateInput{
		FirstName: "New",
		LastName:  "Member",
		Email:     "member@school.test",
		Role:      acl.Role("JANITOR"),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateProvisionsAccountAndSendsInvite(t *testing.T) {
	invites := &recordingInvites{}
	svc := NewService(newMemoryRepo(), users.NewService(&fakeUserRepo{}), invites)

	member, err := svc.Create(memberCtx(acl.RoleFaculty), 1, CreateInput{
		FirstName: "Selma",
		LastName:  "Student",
		Email:     "selma@school.test",
		Role:      acl.RoleStudent,
	})
	require.NoError(t, err)
	require.Equal(t, acl.RoleStudent, member.Role)
	require.Equal(t, "selma@school.test", member.Email)
	require.Equal(t, []string{"selma@school.test"}, invites.sent)
}

func TestCreateReusesExistingAccountWithoutInvite(t *testing.T) {
	invites := &recordingInvites{}
	userRepo := &fakeUserRepo{byEmail: map[string]users.User{
		"known@school.test": {ID: 42, FirstName: "Known", Email: "known@school.test"},
	}}
	svc := NewService(newMemoryRepo(), users.NewService(userRepo), invites)

	member, err := svc.Create(memberCtx(acl.RoleAdmin), 1, CreateInput{
		FirstName: "Known",
		LastName:  "User",
		Email:     "known@school.test",
		Role:      acl.RoleTeacher,
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), member.UserID)
	require.Empty(t, invites.sent)
}

func TestStudentCannotEnrollMembers(t *testing.T) {
	svc := NewService(newMemoryRepo(), users.NewService(&fakeUserRepo{}), nil)

	_, err := svc.Create(memberCtx(acl.RoleStudent), 1, CreateInput{
		FirstName: "Peer",
		LastName:  "Student",
		Email:     "peer@school.test",
		Role:      acl.RoleStudent,
	})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, _, err = svc.List(memberCtx(acl.RoleStudent), 1, shared.PageParams{Limit: 10})
	require.NoError(t, err)
}
