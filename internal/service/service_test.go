package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/dochub-service/internal/auth"
	"github.com/spec-kit/dochub-service/internal/config"
	"github.com/spec-kit/dochub-service/internal/domain"
	"github.com/spec-kit/dochub-service/internal/events"
	"github.com/spec-kit/dochub-service/internal/repository"
)

// fakeUserRepo mirrors the Postgres repository's contract in memory,
// including the registered_at guard and the active-only password update.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) seed(user *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	clone := *user
	r.users[user.ID] = &clone
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	now := time.Now().UTC()
	user.InvitedAt = &now
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.IsDeleted {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for _, user := range r.users {
		if user.Email == email && !user.IsDeleted {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for _, user := range r.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.User
	for _, user := range r.users {
		if user.IsDeleted {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			if strings.Contains(search, "@") {
				if user.Email != strings.ToLower(search) {
					continue
				}
			} else {
				needle := strings.ToLower(search)
				if !strings.Contains(strings.ToLower(user.FirstName), needle) &&
					!strings.Contains(strings.ToLower(user.LastName), needle) {
					continue
				}
			}
		}
		matched = append(matched, *user)
	}

	var total int64
	if filter.Page == 1 {
		total = int64(len(matched))
	}
	offset := (filter.Page - 1) * filter.PerPage
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + filter.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeUserRepo) Register(_ context.Context, id string, reg repository.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.IsDeleted || user.RegisteredAt != nil {
		return pgx.ErrNoRows
	}
	now := time.Now().UTC()
	user.FirstName = reg.FirstName
	user.LastName = reg.LastName
	user.DepartmentID = &reg.DepartmentID
	user.PasswordHash = &reg.PasswordHash
	user.RegisteredAt = &now
	user.UpdatedAt = now
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, id string, fields repository.UserUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok || user.IsDeleted {
		return pgx.ErrNoRows
	}
	if fields.FirstName != nil {
		user.FirstName = *fields.FirstName
	}
	if fields.LastName != nil {
		user.LastName = *fields.LastName
	}
	if fields.DepartmentID != nil {
		user.DepartmentID = fields.DepartmentID
	}
	if fields.RoleID != nil {
		user.RoleID = *fields.RoleID
	}
	if fields.Permissions != nil {
		user.Permissions = fields.Permissions
	}
	if fields.IsActive != nil {
		user.IsActive = *fields.IsActive
	}
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeUserRepo) UpdatePasswordByEmail(_ context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for _, user := range r.users {
		if user.Email == email && user.IsActive && !user.IsDeleted {
			user.PasswordHash = &passwordHash
			user.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeUserRepo) Counts(_ context.Context) (*domain.UserCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var counts domain.UserCounts
	for _, user := range r.users {
		if user.IsDeleted {
			continue
		}
		counts.TotalUsers++
		if user.IsActive {
			counts.ActiveUsers++
			if user.RoleID == domain.RoleAdmin {
				counts.ActiveAdminUsers++
			}
		}
		if user.RegisteredAt == nil {
			counts.UnregisteredUsers++
		}
	}
	return &counts, nil
}

type fakeDepartmentRepo struct {
	departments map[int]domain.Department
}

func (r *fakeDepartmentRepo) GetByID(_ context.Context, id int) (*domain.Department, error) {
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &dept, nil
}

func (r *fakeDepartmentRepo) ListActive(_ context.Context) ([]domain.Department, error) {
	var out []domain.Department
	for _, dept := range r.departments {
		if dept.IsActive {
			out = append(out, dept)
		}
	}
	return out, nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func (d *recordingDispatcher) lastOf(t *testing.T, eventType events.EventType) events.Event {
	t.Helper()
	matching := d.byType(eventType)
	if len(matching) == 0 {
		t.Fatalf("no %s event published", eventType)
	}
	return matching[len(matching)-1]
}

type testEnv struct {
	mr            *miniredis.Miniredis
	repo          *fakeUserRepo
	departments   *fakeDepartmentRepo
	dispatcher    *recordingDispatcher
	sessions      auth.RevocationStore
	issuer        *auth.Issuer
	authenticator *auth.Authenticator
	authService   *AuthService
	userService   *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	codec := auth.NewTokenCodec("test-secret")
	sessions := auth.NewRedisRevocationStore(client)
	issuer := auth.NewIssuer(codec, sessions, auth.TokenTTLs{
		Login:          time.Hour,
		ForgotPassword: 30 * time.Minute,
		Invitation:     24 * time.Hour,
	})
	authenticator := auth.NewAuthenticator(codec, sessions)

	repo := newFakeUserRepo()
	departments := &fakeDepartmentRepo{departments: map[int]domain.Department{
		1: {ID: 1, Name: "Engineering", IsActive: true},
		2: {ID: 2, Name: "Finance", IsActive: true},
	}}
	dispatcher := &recordingDispatcher{}

	// Minimum bcrypt cost keeps the hashing in tests cheap.
	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: 4}}
	logger := zap.NewNop()

	authService := NewAuthService(cfg, AuthDependencies{
		UserRepo:       repo,
		DepartmentRepo: departments,
		Issuer:         issuer,
		Authenticator:  authenticator,
		Sessions:       sessions,
		Dispatcher:     dispatcher,
	}, logger)
	userService := NewUserService(cfg, UserDependencies{
		UserRepo:       repo,
		DepartmentRepo: departments,
		Issuer:         issuer,
		Authenticator:  authenticator,
		Sessions:       sessions,
		Dispatcher:     dispatcher,
	}, logger)

	return &testEnv{
		mr:            mr,
		repo:          repo,
		departments:   departments,
		dispatcher:    dispatcher,
		sessions:      sessions,
		issuer:        issuer,
		authenticator: authenticator,
		authService:   authService,
		userService:   userService,
	}
}

// seedRegisteredUser stores an active, registered account with the given
// password and returns it.
func (env *testEnv) seedRegisteredUser(t *testing.T, email, password string, roleID int) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	deptID := 1
	return env.repo.seed(&domain.User{
		ID:           uuid.NewString(),
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        strings.ToLower(email),
		PasswordHash: &hash,
		RoleID:       roleID,
		DepartmentID: &deptID,
		Permissions:  []string{"documents:read"},
		IsActive:     true,
		RegisteredAt: &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
