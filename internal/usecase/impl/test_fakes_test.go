package impl

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"localbite/config"
	"localbite/internal/domain/entity"
	"localbite/internal/domain/repository"

	"github.com/google/uuid"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:      4,
			MaxFailedLogins: 5,
			VerificationTTL: 24 * time.Hour,
		},
		PasswordPolicy: &config.PasswordPolicyConfig{
			Enabled:                 true,
			EnforcementLevel:        "STRICT",
			MinLength:               8,
			MaxLength:               128,
			RequireUppercase:        true,
			RequireLowercase:        true,
			RequireDigits:           true,
			RequireSpecial:          true,
			MinDigits:               1,
			MinSpecialChars:         1,
			PreventCommonPasswords:  true,
			PreventPersonalInfo:     true,
			PreventKeyboardPatterns: true,
			MaxRepeatedChars:        3,
			HistoryCount:            5,
			ExpiryDays:              90,
			ExpiryWarningDays:       7,
		},
	}
}

// fakeHasher is a deterministic stand-in for bcrypt so tests stay fast.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

// fakeUserRepo is an in-memory UserRepository keyed by email.
type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) add(user *entity.User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[strings.ToLower(user.Email)] = user
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return cloneUser(user), nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	user, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return cloneUser(user), nil
}

func (r *fakeUserRepo) FindByEmailForUpdate(ctx context.Context, email string) (*entity.User, error) {
	return r.FindByEmail(ctx, email)
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := r.users[strings.ToLower(email)]

	return ok, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[strings.ToLower(user.Email)] = cloneUser(user)

	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	user.UpdatedAt = time.Now()
	r.users[strings.ToLower(user.Email)] = cloneUser(user)

	return nil
}

func cloneUser(user *entity.User) *entity.User {
	cloned := *user
	cloned.Roles = append([]entity.Role(nil), user.Roles...)
	if user.LastLogin != nil {
		lastLogin := *user.LastLogin
		cloned.LastLogin = &lastLogin
	}

	return &cloned
}

// fakeRoleRepo is an in-memory RoleRepository.
type fakeRoleRepo struct {
	roles  map[entity.RoleName]*entity.Role
	nextID int64
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[entity.RoleName]*entity.Role)}
}

func (r *fakeRoleRepo) FindByName(_ context.Context, name entity.RoleName) (*entity.Role, error) {
	role, ok := r.roles[name]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}

	return role, nil
}

func (r *fakeRoleRepo) Create(_ context.Context, role *entity.Role) error {
	r.nextID++
	role.ID = r.nextID
	r.roles[role.Name] = role

	return nil
}

// fakeHistoryRepo is an in-memory PasswordHistoryRepository.
type fakeHistoryRepo struct {
	entries []*entity.PasswordHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, history *entity.PasswordHistory) error {
	if history.ID == uuid.Nil {
		history.ID = uuid.New()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}
	r.entries = append(r.entries, history)

	return nil
}

func (r *fakeHistoryRepo) ListRecent(_ context.Context, userID uuid.UUID, limit int) ([]*entity.PasswordHistory, error) {
	var matched []*entity.PasswordHistory
	for _, entry := range r.entries {
		if entry.UserID == userID {
			matched = append(matched, entry)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

func (r *fakeHistoryRepo) Prune(ctx context.Context, userID uuid.UUID, keep int) error {
	kept, err := r.ListRecent(ctx, userID, keep)
	if err != nil {
		return err
	}

	keptIDs := make(map[uuid.UUID]bool, len(kept))
	for _, entry := range kept {
		keptIDs[entry.ID] = true
	}

	var remaining []*entity.PasswordHistory
	for _, entry := range r.entries {
		if entry.UserID != userID || keptIDs[entry.ID] {
			remaining = append(remaining, entry)
		}
	}
	r.entries = remaining

	return nil
}

// fakeTokenRepo is an in-memory VerificationTokenRepository.
type fakeTokenRepo struct {
	tokens map[string]*entity.VerificationToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*entity.VerificationToken)}
}

func (r *fakeTokenRepo) FindByToken(_ context.Context, token string) (*entity.VerificationToken, error) {
	found, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrVerificationTokenNotFound
	}

	cloned := *found

	return &cloned, nil
}

func (r *fakeTokenRepo) Create(_ context.Context, token *entity.VerificationToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now()
	cloned := *token
	r.tokens[token.Token] = &cloned

	return nil
}

func (r *fakeTokenRepo) Update(_ context.Context, token *entity.VerificationToken) error {
	cloned := *token
	r.tokens[token.Token] = &cloned

	return nil
}

// fakeRepoFactory hands out the shared in-memory repositories.
type fakeRepoFactory struct {
	userRepo    *fakeUserRepo
	roleRepo    *fakeRoleRepo
	historyRepo *fakeHistoryRepo
	tokenRepo   *fakeTokenRepo
}

func (f *fakeRepoFactory) UserRepo() repository.UserRepository { return f.userRepo }
func (f *fakeRepoFactory) RoleRepo() repository.RoleRepository { return f.roleRepo }
func (f *fakeRepoFactory) PasswordHistoryRepo() repository.PasswordHistoryRepository {
	return f.historyRepo
}
func (f *fakeRepoFactory) VerificationTokenRepo() repository.VerificationTokenRepository {
	return f.tokenRepo
}

// fakeTxManager runs the callback against the shared fakes without any
// transactional semantics, which is all these tests need.
type fakeTxManager struct {
	factory *fakeRepoFactory
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

// fakeTokenCodec issues predictable token strings.
type fakeTokenCodec struct{}

func (fakeTokenCodec) GenerateAccessToken(user *entity.User) (string, error) {
	return "access:" + user.Email, nil
}

func (fakeTokenCodec) GenerateRefreshToken(user *entity.User) (string, error) {
	return "refresh:" + user.Email, nil
}

func (fakeTokenCodec) Validate(token string, user *entity.User) bool {
	return token == "access:"+user.Email || token == "refresh:"+user.Email
}

func (fakeTokenCodec) IsRefreshToken(token string) bool {
	return strings.HasPrefix(token, "refresh:")
}

func (fakeTokenCodec) Subject(token string) (string, error) {
	_, email, _ := strings.Cut(token, ":")

	return email, nil
}

func (fakeTokenCodec) AccessTokenTTL() time.Duration { return time.Hour }

// fakeDispatcher records the verification mails it was asked to send.
// Registration dispatches from a detached goroutine, so access is guarded
// and sends are signalled for tests that need to wait.
type fakeDispatcher struct {
	mu     sync.Mutex
	sent   []string // "email:token"
	notify chan struct{}
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{notify: make(chan struct{}, 16)}
}

func (d *fakeDispatcher) SendVerificationEmail(_ context.Context, recipient, token string) error {
	d.mu.Lock()
	d.sent = append(d.sent, recipient+":"+token)
	d.mu.Unlock()

	d.notify <- struct{}{}

	return nil
}

func (d *fakeDispatcher) waitForSend(timeout time.Duration) bool {
	select {
	case <-d.notify:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (d *fakeDispatcher) sentCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.sent)
}

func (d *fakeDispatcher) lastToken() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sent) == 0 {
		return ""
	}
	_, token, _ := strings.Cut(d.sent[len(d.sent)-1], ":")

	return token
}
