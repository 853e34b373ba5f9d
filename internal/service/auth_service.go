package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/lms-portal/internal/models"
	"github.com/noah-isme/lms-portal/internal/store"
	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

// SessionConfig bounds the workspace cache and carries engine policy.
type SessionConfig struct {
	TTL             time.Duration
	MaxSessions     int
	RequireLecturer bool
}

// SessionService resolves bearer tokens into workspaces. Tokens are
// verified by the upstream API when the session starts; the gateway only
// reads their expiry to avoid holding a workspace past it.
type SessionService struct {
	sessions *expirable.LRU[string, *Workspace]
	factory  func(token string) LMSAPI
	config   SessionConfig
	metrics  *MetricsService
	logger   *zap.Logger
	starts   singleflight.Group
	now      func() time.Time

	mu sync.Mutex
	// byUser maps a user id to the session keys held for that account.
	byUser map[string]map[string]struct{}
}

// NewSessionService constructs the service. factory binds an upstream API to a token.
func NewSessionService(factory func(token string) LMSAPI, config SessionConfig, metrics *MetricsService, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 30 * time.Minute
	}
	if config.MaxSessions <= 0 {
		config.MaxSessions = 1024
	}
	s := &SessionService{
		factory: factory,
		config:  config,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		byUser:  map[string]map[string]struct{}{},
	}
	s.sessions = expirable.NewLRU[string, *Workspace](config.MaxSessions, func(key string, ws *Workspace) {
		s.unindex(ws.User().ID, key)
		s.metrics.SessionClosed()
		s.logger.Debug("session closed", zap.String("workspace", ws.ID))
	}, config.TTL)
	return s
}

// Resolve returns the workspace for token, starting a session when none is held.
func (s *SessionService) Resolve(ctx context.Context, token string) (*Workspace, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token")
	}
	claims := parseClaims(token)
	if claims != nil && claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now()) {
		s.End(token)
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token expired")
	}

	key := sessionKey(token)
	if ws, ok := s.sessions.Get(key); ok && s.now().Before(ws.ExpiresAt) {
		return ws, nil
	}

	ch := s.starts.DoChan(key, func() (interface{}, error) {
		startCtx, cancel := detach(ctx)
		defer cancel()
		return s.start(startCtx, token, key, claims)
	})
	v, err := awaitShared(ctx, ch)
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

// End drops the workspace held for token, if any.
func (s *SessionService) End(token string) bool {
	return s.sessions.Remove(sessionKey(token))
}

// EndUser drops every workspace held for userID and reports how many were held.
func (s *SessionService) EndUser(userID string) int {
	s.mu.Lock()
	keys := make([]string, 0, len(s.byUser[userID]))
	for key := range s.byUser[userID] {
		keys = append(keys, key)
	}
	s.mu.Unlock()

	n := 0
	for _, key := range keys {
		if s.sessions.Remove(key) {
			n++
		}
	}
	if n > 0 {
		s.logger.Info("sessions revoked", zap.String("user_id", userID), zap.Int("count", n))
	}
	return n
}

// Len reports how many workspaces are held.
func (s *SessionService) Len() int {
	return s.sessions.Len()
}

func (s *SessionService) start(ctx context.Context, token, key string, claims *models.TokenClaims) (*Workspace, error) {
	api := s.factory(token)
	user, err := api.CurrentUser(ctx)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && (appErr.UpstreamStatus == http.StatusUnauthorized || appErr.UpstreamStatus == http.StatusForbidden) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token rejected by upstream")
		}
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "upstream returned no user for token")
	}
	if !user.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unsupported role")
	}
	if !user.IsActive {
		if user.Role == models.RoleLecturer {
			return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "lecturer account is awaiting admin approval")
		}
		return nil, appErrors.ErrInactiveAccount
	}

	id := key[:16]
	st := store.New(store.WithClampHook(func(before models.Module) {
		s.metrics.RecordCountClamp()
		s.logger.Warn("clamped module enrolled count",
			zap.String("workspace", id),
			zap.String("module_id", before.ID),
			zap.Int("enrolled_count", before.EnrolledCount),
			zap.Int("limit", before.Limit),
		)
	}))
	ws := NewWorkspace(id, *user, api, st, WithLecturerRequired(s.config.RequireLecturer))
	ws.ExpiresAt = s.now().Add(s.config.TTL)
	if claims != nil && claims.ExpiresAt != nil && claims.ExpiresAt.Before(ws.ExpiresAt) {
		ws.ExpiresAt = claims.ExpiresAt.Time
	}

	if _, exists := s.sessions.Peek(key); exists {
		s.sessions.Remove(key)
	}
	s.index(user.ID, key)
	s.sessions.Add(key, ws)
	s.metrics.SessionOpened()

	fields := []zap.Field{zap.String("workspace", id), zap.String("user_id", user.ID), zap.String("role", string(user.Role))}
	if claims != nil && claims.PreferredUsername != "" {
		fields = append(fields, zap.String("username", claims.PreferredUsername))
	}
	s.logger.Info("session started", fields...)
	return ws, nil
}

func (s *SessionService) index(userID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.byUser[userID]
	if !ok {
		keys = map[string]struct{}{}
		s.byUser[userID] = keys
	}
	keys[key] = struct{}{}
}

func (s *SessionService) unindex(userID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.byUser[userID]
	delete(keys, key)
	if len(keys) == 0 {
		delete(s.byUser, userID)
	}
}

// parseClaims reads the token payload without verifying it. Opaque tokens yield nil.
func parseClaims(token string) *models.TokenClaims {
	claims := &models.TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
