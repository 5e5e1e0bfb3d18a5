// Package users is the role store and the account endpoints built on it.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"parlour/models"
	"parlour/utils"
)

type TokenIssuer interface {
	Issue(email string) (string, error)
}

// LoginResult is returned by the upsert endpoint.
type LoginResult struct {
	Result models.UpdateResult `json:"result"`
	Token  string              `json:"token"`
}

type Service struct {
	store  Store
	cache  RoleCache
	tokens TokenIssuer
	log    zerolog.Logger
}

// NewService wires the role store. cache may be nil.
func NewService(store Store, cache RoleCache, tokens TokenIssuer, log zerolog.Logger) *Service {
	return &Service{store: store, cache: cache, tokens: tokens, log: log}
}

// Login upserts the profile for email and hands back a fresh token bound to
// it. New accounts get the "user" role.
func (s *Service) Login(ctx context.Context, email string, p models.ProfileUpdate) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", utils.ErrBadRequest)
	}

	res, err := s.store.Upsert(ctx, email, p)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Result: res, Token: token}, nil
}

func (s *Service) Get(ctx context.Context, email string) (*models.User, error) {
	return s.store.FindByEmail(ctx, email)
}

// RoleOf returns the stored role for email, reading through the cache.
// A missing account is utils.ErrNotFound.
func (s *Service) RoleOf(ctx context.Context, email string) (string, error) {
	if s.cache != nil {
		role, ok, err := s.cache.Get(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("role cache read failed")
		} else if ok {
			return role, nil
		}
	}

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	role := u.Role
	if role == "" {
		role = models.RoleUser
	}

	if s.cache != nil {
		if err := s.cache.Add(ctx, email, role); err != nil {
			s.log.Warn().Err(err).Msg("role cache write failed")
		}
	}
	return role, nil
}

// IsAdmin reports false for unknown accounts.
func (s *Service) IsAdmin(ctx context.Context, email string) (bool, error) {
	role, err := s.RoleOf(ctx, email)
	if errors.Is(err, utils.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

// PromoteToAdmin is idempotent: promoting an admin again modifies nothing.
// The new role is written to the cache so the next guard check sees it.
func (s *Service) PromoteToAdmin(ctx context.Context, email string) (models.UpdateResult, error) {
	res, err := s.store.SetRole(ctx, email, models.RoleAdmin)
	if err != nil {
		return models.UpdateResult{}, err
	}
	if s.cache != nil && res.MatchedCount > 0 {
		if err := s.cache.Set(ctx, email, models.RoleAdmin); err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("role cache update failed")
		}
	}
	s.log.Info().Str("email", email).Int64("matched", res.MatchedCount).Msg("user promoted to admin")
	return res, nil
}
