package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chat-relay/internal/common/clock"
	commoncrypto "chat-relay/internal/common/crypto"
	commonerrors "chat-relay/internal/common/errors"
	"chat-relay/internal/common/jwtverify"
	"chat-relay/internal/common/logger"
	userdomain "chat-relay/internal/user/domain"
	userrepo "chat-relay/internal/user/repository"
)

type AuthService struct {
	repo      userrepo.Repository
	hasher    commoncrypto.PasswordHasher
	jwtSecret []byte
	tokenTTL  time.Duration
	clock     clock.Clock
	log       *logger.Logger
}

type AuthServiceDeps struct {
	Repo   userrepo.Repository
	Hasher commoncrypto.PasswordHasher
	Clock  clock.Clock
	Log    *logger.Logger
}

func NewAuthService(deps AuthServiceDeps, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		repo:      deps.Repo,
		hasher:    deps.Hasher,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		clock:     deps.Clock,
		log:       deps.Log,
	}
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "register_attempt",
	}).Info("register attempt")

	if err := validateCredentials(input.Username, input.Password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_validation_failed",
		}).Warnf("register validation failed: %v", err)
		return err
	}

	if _, err := s.repo.FindByUsername(ctx, input.Username); err == nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_username_exists",
		}).Warn("register failed: already exists")
		return commonerrors.ErrUsernameAlreadyExists
	} else if !errors.Is(err, commonerrors.ErrUserNotFound) {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_lookup_failed",
		}).Errorf("register failed: %v", err)
		return commonerrors.ErrDatabaseError.WithCause(err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return commonerrors.ErrHashingError.WithCause(err)
	}

	user := userdomain.User{
		Username:     input.Username,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, commonerrors.ErrUsernameAlreadyExists) {
			// Lost the race against a concurrent registration; same outcome
			// as the lookup above.
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_username_exists",
			}).Warn("register failed: already exists")
			return commonerrors.ErrUsernameAlreadyExists
		}
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_create_failed",
		}).Errorf("register failed: %v", err)
		return commonerrors.ErrDatabaseError.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"action":   "register_success",
	}).Info("register success")

	return nil
}

// Login verifies credentials and issues a signed bearer token. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "login_attempt",
	}).Info("login attempt")

	user, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, commonerrors.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "login_unknown_user",
			}).Warn("login failed: unknown user")
			return "", commonerrors.ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_lookup_failed",
		}).Errorf("login failed: %v", err)
		return "", commonerrors.ErrDatabaseError.WithCause(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_wrong_password",
		}).Warn("login failed: wrong password")
		return "", commonerrors.ErrInvalidCredentials
	}

	token, err := s.issueToken(user.Username)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return "", commonerrors.ErrInternalError.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"action":   "login_success",
	}).Info("login success")

	return token, nil
}

// ValidateToken checks signature and expiry without touching storage.
func (s *AuthService) ValidateToken(tokenString string) (jwtverify.Claims, error) {
	claims, err := jwtverify.ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return jwtverify.Claims{}, commonerrors.ErrTokenExpired.WithCause(err)
		}
		return jwtverify.Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
	}
	return claims, nil
}

func (s *AuthService) issueToken(username string) (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"exp": now.Add(s.tokenTTL).Unix(),
		"iat": now.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}
