package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/itacpc/teams/internal/mail"
	"github.com/itacpc/teams/internal/secret"
	"github.com/itacpc/teams/internal/student"
	"github.com/itacpc/teams/internal/university"
)

// ErrEmailDomain is returned when the email does not belong to the university.
var ErrEmailDomain = errors.New("email address is not institutional")

// ErrInvalidCredentials is returned when the email or password is wrong.
var ErrInvalidCredentials = errors.New("wrong email or password")

// ErrNotVerified is returned when logging in before confirming the email address.
var ErrNotVerified = errors.New("email address not confirmed")

// ErrInvalidToken is returned for unknown, used or expired email tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrWeakPassword is returned when a password is shorter than MinPasswordLength.
var ErrWeakPassword = errors.New("password too short")

// StudentStore is the subset of student.Repository used for authentication.
type StudentStore interface {
	Create(ctx context.Context, s *student.Student, afterInsert student.Hook) error
	GetByEmail(ctx context.Context, email string) (*student.Student, error)
	Confirm(ctx context.Context, token string) (*student.Student, error)
	RequestPasswordReset(ctx context.Context, email string, req student.ResetRequest, afterStore student.Hook) error
	GetByResetToken(ctx context.Context, token string, now time.Time) (*student.Student, error)
	ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error
}

// UniversityLookup resolves universities.
type UniversityLookup interface {
	GetByShortName(ctx context.Context, shortName string) (*university.University, error)
	GetByID(ctx context.Context, id uuid.UUID) (*university.University, error)
}

// Options configures the auth Service.
type Options struct {
	BaseURL       string
	BcryptCost    int
	ResetTTL      time.Duration
	ResetCooldown time.Duration
	NewToken      func() (string, error)
	Now           func() time.Time
}

// Service provides registration, login and password reset.
type Service struct {
	students     StudentStore
	universities UniversityLookup
	mailer       mail.Sender
	opts         Options
}

// NewService creates a new auth Service.
func NewService(students StudentStore, universities UniversityLookup, mailer mail.Sender, opts Options) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.NewToken == nil {
		opts.NewToken = secret.Generator(secret.DefaultLength)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Service{
		students:     students,
		universities: universities,
		mailer:       mailer,
		opts:         opts,
	}
}

// Register creates an unverified student and emails the confirmation link.
// The insert is rolled back when the email cannot be sent.
func (s *Service) Register(ctx context.Context, r Registration) (*student.Student, error) {
	uni, err := s.activeUniversity(ctx, r.UniversityShortName)
	if err != nil {
		return nil, err
	}
	if !uni.AllowsEmail(r.Email) {
		return nil, ErrEmailDomain
	}
	if len(r.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := s.hash(r.Password)
	if err != nil {
		return nil, err
	}
	token, err := s.opts.NewToken()
	if err != nil {
		return nil, fmt.Errorf("generating confirmation token: %w", err)
	}

	st := &student.Student{
		Email:             student.NormalizeEmail(r.Email),
		PasswordHash:      hash,
		FirstName:         TitleCase(r.FirstName),
		LastName:          TitleCase(r.LastName),
		UniversityID:      uni.ID,
		Subscribed:        r.Subscribed,
		IsSwercEligible:   r.IsSwercEligible,
		Handles:           r.Handles.Normalize(),
		ConfirmationToken: &token,
	}

	err = s.students.Create(ctx, st, func(ctx context.Context, created *student.Student) error {
		return s.send(ctx, mail.RegistrationConfirm, created, mail.TokenData{
			Name:    created.FirstName,
			BaseURL: s.opts.BaseURL,
			Token:   token,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("student registered", "userId", st.ID, "university", uni.ShortName)
	return st, nil
}

// Confirm redeems a confirmation token. Tokens are single use.
func (s *Service) Confirm(ctx context.Context, token string) (*student.Student, error) {
	st, err := s.students.Confirm(ctx, token)
	if err != nil {
		if errors.Is(err, student.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	slog.Info("email address confirmed", "userId", st.ID)
	return st, nil
}

// Login checks the credentials of a student and returns their identity.
func (s *Service) Login(ctx context.Context, email, password string) (*Identity, error) {
	st, err := s.students.GetByEmail(ctx, student.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, student.ErrStudentNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up student: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !st.IsVerified {
		return nil, ErrNotVerified
	}

	uni, err := s.universities.GetByID(ctx, st.UniversityID)
	if err != nil {
		return nil, fmt.Errorf("loading university: %w", err)
	}
	return NewIdentity(st, uni), nil
}

// RequestPasswordReset emails a reset link to the owner of email. Unknown
// addresses succeed silently. Returns student.ErrResetCooldown when a link was
// sent recently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	token, err := s.opts.NewToken()
	if err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}

	now := s.opts.Now()
	req := student.ResetRequest{
		Token:       token,
		ExpiresAt:   now.Add(s.opts.ResetTTL),
		RequestedAt: now,
		Cooldown:    s.opts.ResetCooldown,
	}

	err = s.students.RequestPasswordReset(ctx, student.NormalizeEmail(email), req, func(ctx context.Context, st *student.Student) error {
		return s.send(ctx, mail.ForgotPassword, st, mail.TokenData{
			Name:      st.FirstName,
			BaseURL:   s.opts.BaseURL,
			Token:     token,
			ExpiresAt: req.ExpiresAt,
		})
	})
	if errors.Is(err, student.ErrStudentNotFound) {
		slog.Info("password reset requested for unknown email")
		return nil
	}
	return err
}

// CheckResetToken returns the student owning an unexpired reset token.
func (s *Service) CheckResetToken(ctx context.Context, token string) (*student.Student, error) {
	st, err := s.students.GetByResetToken(ctx, token, s.opts.Now())
	if err != nil {
		if errors.Is(err, student.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return st, nil
}

// ResetPassword sets a new password using a reset token. Tokens are single use.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}

	err = s.students.ResetPassword(ctx, token, hash, s.opts.Now())
	if errors.Is(err, student.ErrTokenNotFound) {
		return ErrInvalidToken
	}
	return err
}

// CreateSuperuser creates a verified staff account. The university email
// allow-list is not enforced and no email is sent.
func (s *Service) CreateSuperuser(ctx context.Context, in Superuser) (*student.Student, error) {
	uni, err := s.universities.GetByShortName(ctx, in.UniversityShortName)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	st := &student.Student{
		Email:        student.NormalizeEmail(in.Email),
		PasswordHash: hash,
		FirstName:    TitleCase(in.FirstName),
		LastName:     TitleCase(in.LastName),
		UniversityID: uni.ID,
		IsVerified:   true,
		IsSuperuser:  true,
	}
	if err := s.students.Create(ctx, st, nil); err != nil {
		return nil, err
	}

	slog.Info("superuser created", "userId", st.ID, "email", st.Email)
	return st, nil
}

// NewIdentity builds the session identity of a student.
func NewIdentity(st *student.Student, uni *university.University) *Identity {
	return &Identity{
		UserID:              st.ID,
		Email:               st.Email,
		Name:                st.FullName(),
		UniversityID:        uni.ID,
		UniversityShortName: uni.ShortName,
		IsSuperuser:         st.IsSuperuser,
	}
}

// TitleCase trims and title-cases a person name ("mario ROSSI" -> "Mario Rossi").
func TitleCase(name string) string {
	// A Caser keeps state and must not be shared between goroutines.
	return cases.Title(language.Italian).String(strings.TrimSpace(name))
}

func (s *Service) activeUniversity(ctx context.Context, shortName string) (*university.University, error) {
	uni, err := s.universities.GetByShortName(ctx, shortName)
	if err != nil {
		return nil, err
	}
	if !uni.Active {
		return nil, university.ErrUniversityNotFound
	}
	return uni, nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(b), nil
}

func (s *Service) send(ctx context.Context, template string, to *student.Student, data mail.TokenData) error {
	msg, err := mail.Compose(template, to.Email, to.FullName(), data)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending %s email: %w", template, err)
	}
	return nil
}
