package service

import (
	"context"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"
	"github.com/pokedex-companion/pokedexservice/pkg/model"
	"github.com/pokedex-companion/pokedexservice/pkg/repo"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string        `json:"token"`
	User  model.Profile `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Profile(ctx context.Context, userID uint) (*model.User, error)
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
}

type authService struct {
	repo   repo.UserRepository
	tokens *TokenManager
	cost   int
	log    *logrus.Logger
}

func NewAuthService(r repo.UserRepository, tokens *TokenManager, bcryptCost int, log *logrus.Logger) AuthService {
	return &authService{repo: r, tokens: tokens, cost: bcryptCost, log: log}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if err := s.ensureFree(ctx, username, email); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperr.Internal(errors.Wrap(err, "hash password"))
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// lost a race with a concurrent registration; report which field
			if err := s.ensureFree(ctx, username, email); err != nil {
				return nil, err
			}
			return nil, apperr.Conflict(apperr.MsgConflict)
		}
		return nil, apperr.Internal(errors.Wrap(err, "create user"))
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return user, nil
}

// ensureFree checks username first, then email.
func (s *authService) ensureFree(ctx context.Context, username, email string) error {
	if _, err := s.repo.GetUserByUsername(ctx, username); err == nil {
		return apperr.Conflict(apperr.MsgUsernameInUse)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return apperr.Internal(errors.Wrap(err, "lookup username"))
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return apperr.Conflict(apperr.MsgEmailInUse)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return apperr.Internal(errors.Wrap(err, "lookup email"))
	}
	return nil
}

// Login does not tell an unknown email apart from a wrong password.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.log.WithField("email", email).Warn("login failed: unknown email")
			return nil, apperr.Unauthorized(apperr.MsgInvalidCredentials)
		}
		return nil, apperr.Internal(errors.Wrap(err, "lookup user"))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.WithField("user_id", user.ID).Warn("login failed: wrong password")
		return nil, apperr.Unauthorized(apperr.MsgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LoginResult{Token: token, User: user.Profile()}, nil
}

func (s *authService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.Unauthorized(apperr.MsgUserNotFound)
		}
		return nil, apperr.Internal(errors.Wrap(err, "lookup user"))
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		s.log.WithField("user_id", userID).Warn("password change rejected: wrong current password")
		return apperr.Unauthorized(apperr.MsgOldPasswordInvalid)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return apperr.Internal(errors.Wrap(err, "hash password"))
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.Unauthorized(apperr.MsgUserNotFound)
		}
		return apperr.Internal(errors.Wrap(err, "update password"))
	}
	return nil
}
