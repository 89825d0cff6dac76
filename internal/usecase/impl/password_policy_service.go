// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"localbite/config"
	deliverycontext "localbite/internal/delivery/context"
	"localbite/internal/domain/entity"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/domain/repository"
	"localbite/internal/domain/service"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// commonPasswords is the denylist checked case-insensitively. Matching is
// exact, not substring; "password123!" is handled by the other rules.
var commonPasswords = []string{
	"password", "password1", "password123", "123456", "12345678", "123456789",
	"1234567890", "qwerty", "qwerty123", "abc123", "admin", "letmein",
	"welcome", "welcome1", "monkey", "dragon", "master", "iloveyou",
	"sunshine", "princess", "football", "baseball", "trustno1", "superman",
	"passw0rd", "p@ssword", "p@ssw0rd", "changeme", "secret",
}

// keyboardPatterns are checked as substrings, first match stops the scan.
var keyboardPatterns = []string{
	"qwerty", "asdf", "zxcv", "1234", "abcd",
	"qwertyuiop", "asdfghjkl", "zxcvbnm", "123456789", "987654321", "abcdefgh",
}

// enforcement levels order the policy from off to paranoid. Levels above
// DISABLED raise the effective minimum length to their floor.
const (
	levelDisabled = "DISABLED"
	levelLenient  = "LENIENT"
	levelModerate = "MODERATE"
	levelStrict   = "STRICT"
)

// passwordPolicyService implements the service.PasswordPolicy interface.
type passwordPolicyService struct {
	cfg         *config.PasswordPolicyConfig
	hasher      service.PasswordHasher
	historyRepo repository.PasswordHistoryRepository
	logger      *slog.Logger
	now         func() time.Time
}

// PasswordPolicyParams holds dependencies for the policy engine, injected by Fx.
type PasswordPolicyParams struct {
	fx.In

	Config      *config.Config
	Hasher      service.PasswordHasher
	HistoryRepo repository.PasswordHistoryRepository
	Logger      *slog.Logger
}

// NewPasswordPolicyService is the constructor for passwordPolicyService.
func NewPasswordPolicyService(params PasswordPolicyParams) service.PasswordPolicy {
	return &passwordPolicyService{
		cfg:         params.Config.PasswordPolicy,
		hasher:      params.Hasher,
		historyRepo: params.HistoryRepo,
		logger:      params.Logger,
		now:         time.Now,
	}
}

func (srv *passwordPolicyService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *passwordPolicyService) level() string {
	return strings.ToUpper(srv.cfg.EnforcementLevel)
}

func (srv *passwordPolicyService) enabled() bool {
	return srv.cfg.Enabled && srv.level() != levelDisabled
}

// effectiveMinLength raises the configured minimum to the level's floor.
func (srv *passwordPolicyService) effectiveMinLength() int {
	minLength := srv.cfg.MinLength

	var floor int
	switch srv.level() {
	case levelLenient:
		floor = 6
	case levelModerate:
		floor = 8
	case levelStrict:
		floor = 10
	}

	if floor > minLength {
		return floor
	}

	return minLength
}

// advancedChecksEnabled reports whether the denylist, personal-info,
// keyboard-pattern, repeat and history rules apply. LENIENT keeps only the
// length and character-class rules.
func (srv *passwordPolicyService) advancedChecksEnabled() bool {
	level := srv.level()

	return level == levelModerate || level == levelStrict
}

// Validate checks a candidate password and returns a policy violation error
// listing every failed rule, or nil.
func (srv *passwordPolicyService) Validate(ctx context.Context, candidate string, user *entity.User) error {
	evaluation := srv.Evaluate(ctx, candidate, user)
	if evaluation.Valid {
		return nil
	}

	return domainerrors.ErrPasswordPolicyViolation.WithDetails(strings.Join(evaluation.Violations, "; "))
}

// Evaluate returns the full verdict without turning it into an error.
func (srv *passwordPolicyService) Evaluate(ctx context.Context, candidate string, user *entity.User) *service.PasswordEvaluation {
	score, strength := scorePassword(candidate)

	if !srv.enabled() {
		return &service.PasswordEvaluation{Valid: true, Score: score, Strength: strength}
	}

	var violations []string
	violations = append(violations, srv.checkLength(candidate)...)
	violations = append(violations, srv.checkCharacterClasses(candidate)...)

	if srv.advancedChecksEnabled() {
		violations = append(violations, srv.checkCommonPasswords(candidate)...)
		violations = append(violations, srv.checkPersonalInfo(candidate, user)...)
		violations = append(violations, srv.checkKeyboardPatterns(candidate)...)
		violations = append(violations, srv.checkRepeatedChars(candidate)...)
		violations = append(violations, srv.checkHistory(ctx, candidate, user)...)
	}

	return &service.PasswordEvaluation{
		Valid:       len(violations) == 0,
		Score:       score,
		Strength:    strength,
		Violations:  violations,
		Suggestions: srv.Suggestions(),
	}
}

// Suggestions renders the active policy as human-readable advice. The list
// mirrors configuration, not any particular candidate: only enabled rules
// contribute a hint, and the thresholds quoted are the effective ones.
func (srv *passwordPolicyService) Suggestions() []string {
	suggestions := []string{"Use a mix of uppercase and lowercase letters"}

	if srv.cfg.RequireDigits {
		suggestions = append(suggestions, fmt.Sprintf("Include at least %d number(s)", srv.cfg.MinDigits))
	}
	if srv.cfg.RequireSpecial {
		suggestions = append(suggestions, fmt.Sprintf("Include at least %d special character(s): %s", srv.cfg.MinSpecialChars, specialChars))
	}

	suggestions = append(suggestions, fmt.Sprintf("Make it at least %d characters long", srv.effectiveMinLength()))

	if srv.cfg.PreventCommonPasswords {
		suggestions = append(suggestions, "Avoid common passwords like 'password123' or 'qwerty'")
	}
	if srv.cfg.PreventPersonalInfo {
		suggestions = append(suggestions, "Don't use personal information like your name or email")
	}

	return append(suggestions, "Consider using a passphrase with multiple words")
}

func (srv *passwordPolicyService) checkLength(candidate string) []string {
	var violations []string

	minLength := srv.effectiveMinLength()
	if len(candidate) < minLength {
		violations = append(violations, fmt.Sprintf("password must be at least %d characters long", minLength))
	}
	if len(candidate) > srv.cfg.MaxLength {
		violations = append(violations, fmt.Sprintf("password must not exceed %d characters", srv.cfg.MaxLength))
	}

	return violations
}

func (srv *passwordPolicyService) checkCharacterClasses(candidate string) []string {
	var upper, lower, digits, special int
	for _, r := range candidate {
		switch {
		case r >= 'A' && r <= 'Z':
			upper++
		case r >= 'a' && r <= 'z':
			lower++
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(specialChars, r):
			special++
		}
	}

	var violations []string
	if srv.cfg.RequireUppercase && upper == 0 {
		violations = append(violations, "password must contain at least one uppercase letter")
	}
	if srv.cfg.RequireLowercase && lower == 0 {
		violations = append(violations, "password must contain at least one lowercase letter")
	}
	if srv.cfg.RequireDigits && digits < srv.cfg.MinDigits {
		violations = append(violations, fmt.Sprintf("password must contain at least %d digit(s)", srv.cfg.MinDigits))
	}
	if srv.cfg.RequireSpecial && special < srv.cfg.MinSpecialChars {
		violations = append(violations, fmt.Sprintf("password must contain at least %d special character(s)", srv.cfg.MinSpecialChars))
	}

	return violations
}

func (srv *passwordPolicyService) checkCommonPasswords(candidate string) []string {
	if !srv.cfg.PreventCommonPasswords {
		return nil
	}

	lowered := strings.ToLower(candidate)
	for _, common := range commonPasswords {
		if lowered == common {
			return []string{"password is too common"}
		}
	}

	return nil
}

// checkPersonalInfo refuses passwords containing the user's name or the
// local part of their email address. Fragments shorter than 3 characters
// are ignored to avoid rejecting every password containing "al".
func (srv *passwordPolicyService) checkPersonalInfo(candidate string, user *entity.User) []string {
	if !srv.cfg.PreventPersonalInfo || user == nil {
		return nil
	}

	lowered := strings.ToLower(candidate)

	fragments := []string{user.FirstName, user.LastName}
	if at := strings.Index(user.Email, "@"); at > 0 {
		fragments = append(fragments, user.Email[:at])
	}

	for _, fragment := range fragments {
		fragment = strings.ToLower(strings.TrimSpace(fragment))
		if len(fragment) < 3 {
			continue
		}
		if strings.Contains(lowered, fragment) {
			return []string{"password must not contain personal information"}
		}
	}

	return nil
}

func (srv *passwordPolicyService) checkKeyboardPatterns(candidate string) []string {
	if !srv.cfg.PreventKeyboardPatterns {
		return nil
	}

	lowered := strings.ToLower(candidate)
	for _, pattern := range keyboardPatterns {
		if strings.Contains(lowered, pattern) {
			return []string{"password must not contain keyboard patterns"}
		}
	}

	return nil
}

// checkRepeatedChars rejects runs of the same character longer than the
// configured maximum. A run-length scan replaces the original backreference
// regex, which Go's regexp does not support.
func (srv *passwordPolicyService) checkRepeatedChars(candidate string) []string {
	maxRun := srv.cfg.MaxRepeatedChars
	if maxRun <= 0 {
		return nil
	}

	runes := []rune(candidate)
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run > maxRun {
				return []string{fmt.Sprintf("password must not repeat a character more than %d times in a row", maxRun)}
			}
		} else {
			run = 1
		}
	}

	return nil
}

// checkHistory refuses reuse of the user's recent passwords. Transient users
// (no ID yet) have no history to check.
func (srv *passwordPolicyService) checkHistory(ctx context.Context, candidate string, user *entity.User) []string {
	if srv.cfg.HistoryCount <= 0 || user == nil || user.ID == uuid.Nil {
		return nil
	}

	entries, err := srv.historyRepo.ListRecent(ctx, user.ID, srv.cfg.HistoryCount)
	if err != nil {
		// History is advisory; a storage hiccup must not block a password change.
		srv.log(ctx).Warn("Failed to load password history", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil
	}

	for _, entry := range entries {
		if srv.hasher.Check(candidate, entry.PasswordHash) {
			return []string{fmt.Sprintf("password must differ from your last %d passwords", srv.cfg.HistoryCount)}
		}
	}

	return nil
}

// RecordHistory stores a hash in the reuse audit trail and prunes beyond the
// retention count. Failures are logged, never propagated.
func (srv *passwordPolicyService) RecordHistory(ctx context.Context, entry *entity.PasswordHistory) {
	if srv.cfg.HistoryCount <= 0 {
		return
	}

	if err := srv.historyRepo.Create(ctx, entry); err != nil {
		srv.log(ctx).Warn("Failed to record password history", slog.Any("userID", entry.UserID), slog.Any("error", err))

		return
	}

	if err := srv.historyRepo.Prune(ctx, entry.UserID, srv.cfg.HistoryCount); err != nil {
		srv.log(ctx).Warn("Failed to prune password history", slog.Any("userID", entry.UserID), slog.Any("error", err))
	}
}

// CheckExpiry reports the expiry state for the user's current password.
func (srv *passwordPolicyService) CheckExpiry(user *entity.User) service.PasswordExpiry {
	if !srv.enabled() || srv.cfg.ExpiryDays <= 0 {
		return service.PasswordExpiry{}
	}

	reference := user.PasswordReference()
	expiresAt := reference.AddDate(0, 0, srv.cfg.ExpiryDays)
	now := srv.now()

	if now.After(expiresAt) {
		return service.PasswordExpiry{Expired: true}
	}

	daysRemaining := int(expiresAt.Sub(now).Hours() / 24)
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	expiry := service.PasswordExpiry{DaysRemaining: daysRemaining}
	if daysRemaining <= srv.cfg.ExpiryWarningDays {
		expiry.Warning = fmt.Sprintf("Password expires in %d day(s). Please change it soon.", daysRemaining)
	}

	return expiry
}

// scorePassword produces a 0-100 strength score from length and character
// variety. The score is informational; policy validity is decided by the
// rule checks.
func scorePassword(candidate string) (int, string) {
	var upper, lower, digits, special bool
	for _, r := range candidate {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digits = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}

	score := len(candidate) * 4
	if score > 40 {
		score = 40
	}
	for _, present := range []bool{upper, lower, digits, special} {
		if present {
			score += 10
		}
	}
	if len(candidate) >= 12 {
		score += 10
	}
	if len(candidate) >= 16 {
		score += 10
	}
	if score > 100 {
		score = 100
	}

	switch {
	case score < 40:
		return score, "WEAK"
	case score < 60:
		return score, "FAIR"
	case score < 80:
		return score, "GOOD"
	default:
		return score, "STRONG"
	}
}
