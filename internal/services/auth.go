package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"udan-bangla-backend/internal/middleware"
	"udan-bangla-backend/internal/models"
)

const (
	refreshTokenTTL = 7 * 24 * time.Hour
	otpTTL          = 5 * time.Minute
	otpResendWait   = 60 * time.Second
	otpMaxAttempts  = 5
	devOTP          = "123456"
)

type authUserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// OTPSender delivers a one-time code to a phone number.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogOTPSender writes codes to the server log. It stands in for an SMS
// gateway in development.
type LogOTPSender struct{}

func (LogOTPSender) SendOTP(ctx context.Context, phone, code string) error {
	log.Printf("OTP for %s: %s", phone, code)
	return nil
}

type AuthService struct {
	userRepo    authUserStore
	kv          KeyValueStore
	jwt         *middleware.JWTAuth
	otp         OTPSender
	adminEmails map[string]bool
	development bool
}

func NewAuthService(userRepo authUserStore, kv KeyValueStore, jwt *middleware.JWTAuth, otp OTPSender, adminEmails []string, development bool) *AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return &AuthService{
		userRepo:    userRepo,
		kv:          kv,
		jwt:         jwt,
		otp:         otp,
		adminEmails: admins,
		development: development,
	}
}

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthTokens, error) {
	fieldErrors := make(map[string]string)

	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Email = strings.TrimSpace(req.Email)

	if req.DisplayName == "" {
		fieldErrors["display_name"] = "Display name is required"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if err := validatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	_, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, &ConflictError{Message: "Email already in use"}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	email := req.Email
	user := &models.User{
		Email:        &email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		AuthProvider: "password",
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	if user.PasswordHash == "" {
		return nil, &UnauthorizedError{Message: "This account uses a different sign-in method"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	s.userRepo.UpdateLastLogin(ctx, user.ID)

	return s.issueTokens(ctx, user)
}

// normalizePhone accepts a 10-digit Indian mobile number with an optional
// +91 or 0 prefix and returns it in +91XXXXXXXXXX form.
func normalizePhone(raw string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(digits, "+91"):
		digits = digits[3:]
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}

	if !phoneRegex.MatchString(digits) {
		return "", false
	}
	return "+91" + digits, true
}

func (s *AuthService) RequestPhoneOTP(ctx context.Context, rawPhone string) error {
	phone, ok := normalizePhone(rawPhone)
	if !ok {
		return &ValidationError{Fields: map[string]string{"phone_number": "Enter a valid 10-digit mobile number"}}
	}

	allowed, err := s.kv.SetNX(ctx, "otp_resend:"+phone, "1", otpResendWait)
	if err != nil {
		return fmt.Errorf("failed to check OTP rate limit: %w", err)
	}
	if !allowed {
		return &RateLimitError{Message: "Please wait 60 seconds before requesting another OTP"}
	}

	code := devOTP
	if !s.development {
		code, err = generateOTP()
		if err != nil {
			return err
		}
	}

	if err := s.kv.Set(ctx, "otp:"+phone, code, otpTTL); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	s.kv.Del(ctx, "otp_attempts:"+phone)

	if err := s.otp.SendOTP(ctx, phone, code); err != nil {
		return &UpstreamError{Message: "Failed to send OTP", Err: err}
	}
	return nil
}

func (s *AuthService) VerifyPhoneOTP(ctx context.Context, req models.PhoneVerifyRequest) (*models.AuthTokens, error) {
	phone, ok := normalizePhone(req.PhoneNumber)
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"phone_number": "Enter a valid 10-digit mobile number"}}
	}

	attempts, err := s.kv.Incr(ctx, "otp_attempts:"+phone, otpTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to track OTP attempts: %w", err)
	}
	if attempts > otpMaxAttempts {
		s.kv.Del(ctx, "otp:"+phone)
		return nil, &RateLimitError{Message: "Too many incorrect attempts. Request a new OTP."}
	}

	stored, err := s.kv.Get(ctx, "otp:"+phone)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, &UnauthorizedError{Message: "OTP expired. Request a new one."}
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(req.OTP))) != 1 {
		return nil, &UnauthorizedError{Message: "Invalid OTP"}
	}
	s.kv.Del(ctx, "otp:"+phone, "otp_attempts:"+phone)

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if errors.Is(err, pgx.ErrNoRows) {
		user = &models.User{
			PhoneNumber:  &phone,
			DisplayName:  "Aspirant " + phone[len(phone)-4:],
			AuthProvider: "phone",
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		return s.issueTokens(ctx, user)
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}
	s.userRepo.UpdateLastLogin(ctx, user.ID)
	return s.issueTokens(ctx, user)
}

// GoogleLogin signs in with a Google profile already verified by the
// client. Only enabled in development, where no token verification is done.
func (s *AuthService) GoogleLogin(ctx context.Context, req models.GoogleLoginRequest) (*models.AuthTokens, error) {
	if !s.development {
		return nil, &ForbiddenError{Message: "Google sign-in is not enabled"}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRegex.MatchString(email) {
		return nil, &ValidationError{Fields: map[string]string{"email": "Invalid email format"}}
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if !user.IsActive {
			return nil, &UnauthorizedError{Message: "Account is deactivated"}
		}
		s.userRepo.UpdateLastLogin(ctx, user.ID)
		return s.issueTokens(ctx, user)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	var photo *string
	if req.PhotoURL != "" {
		photo = &req.PhotoURL
	}

	user = &models.User{
		Email:        &email,
		DisplayName:  name,
		PhotoURL:     photo,
		AuthProvider: "google",
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	userIDStr, err := s.kv.Get(ctx, "refresh:"+refreshToken)
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	// Rotation: a refresh token is single use.
	s.kv.Del(ctx, "refresh:"+refreshToken)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.kv.Del(ctx, "refresh:"+refreshToken)
}

// IsAdmin reports whether the user's email is on the admin list.
func (s *AuthService) IsAdmin(user *models.User) bool {
	return user.Email != nil && s.adminEmails[strings.ToLower(*user.Email)]
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	role := middleware.RoleLearner
	if s.IsAdmin(user) {
		role = middleware.RoleAdmin
	}

	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Plan, role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(32)
	if err != nil {
		return nil, err
	}

	if err := s.kv.Set(ctx, "refresh:"+refreshToken, user.ID.String(), refreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(middleware.AccessTokenTTL.Seconds()),
		IsAdmin:      role == middleware.RoleAdmin,
	}, nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	hasNumber := false
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			hasNumber = true
			break
		}
	}
	if !hasNumber {
		return fmt.Errorf("Password must contain at least one number")
	}
	return nil
}
