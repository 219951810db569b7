package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/data/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/data/repos"
	types "github.com/yungbote/leancanvas-backend/internal/domain"
	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/platform/ctxutil"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"github.com/yungbote/leancanvas-backend/internal/platform/validate"
)

const invalidCredentials = "invalid email or password"

type AuthConfig struct {
	JWTSecretKey      string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	MaxFailedAttempts int
	LockDuration      time.Duration
}

// Session is the token pair handed to a client after login or refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*types.User, error)
	Login(ctx context.Context, email, password string) (Session, error)
	// Refresh rotates the refresh token. An empty token falls back to the one
	// attached to the request context.
	Refresh(ctx context.Context, refreshToken string) (Session, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	CleanupExpiredTokens(ctx context.Context) (int64, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	cfg           AuthConfig
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	cfg AuthConfig,
) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = 5
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = 15 * time.Minute
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type registerInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (as *authService) Register(ctx context.Context, email, password string) (*types.User, error) {
	const op = "Auth.Register"
	in := registerInput{Email: normalizeEmail(email), Password: password}
	if err := validate.Struct(in); err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "failed to hash password", err)
	}

	user := &types.User{Email: in.Email, PasswordHash: string(hash), CreatedAt: as.now()}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(dbc, in.Email)
		if err != nil {
			return err
		}
		if exists {
			return domainagg.NewError(domainagg.CodeConflict, op, "email already registered", nil)
		}
		_, err = as.userRepo.Create(dbc, []*types.User{user})
		return err
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	as.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (Session, error) {
	const op = "Auth.Login"
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, domainagg.NewError(domainagg.CodeValidation, op, "email and password are required", nil)
	}

	users, err := as.userRepo.GetByEmails(dbctx.Background(ctx), []string{email})
	if err != nil {
		return Session{}, aggregates.MapError(op, err)
	}
	if len(users) == 0 {
		return Session{}, domainagg.NewError(domainagg.CodeForbidden, op, invalidCredentials, nil)
	}
	user := users[0]
	now := as.now()
	if user.LockedAt(now) {
		return Session{}, domainagg.NewError(domainagg.CodeForbidden, op, "account locked, try again later", nil)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		updated, ferr := as.userRepo.RecordLoginFailure(dbctx.Background(ctx), user.ID, as.cfg.MaxFailedAttempts, as.cfg.LockDuration, now)
		if ferr != nil {
			as.log.Warn("record login failure failed", "user_id", user.ID, "error", ferr)
		}
		if updated.LockedAt(now) {
			as.log.Warn("account locked after failed logins", "user_id", user.ID)
			return Session{}, domainagg.NewError(domainagg.CodeForbidden, op, "account locked, try again later", nil)
		}
		return Session{}, domainagg.NewError(domainagg.CodeForbidden, op, invalidCredentials, nil)
	}

	var session Session
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := as.userRepo.RecordLoginSuccess(dbc, user.ID, now); err != nil {
			return err
		}
		// one active session per user
		if err := as.userTokenRepo.DeleteByUserIDs(dbc, []int64{user.ID}); err != nil {
			return err
		}
		var err error
		session, err = as.issue(dbc, user.ID, now)
		return err
	})
	if err != nil {
		return Session{}, aggregates.MapError(op, err)
	}
	as.log.Info("user logged in", "user_id", user.ID)
	return session, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	const op = "Auth.Refresh"
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			refreshToken = rd.RefreshToken
		}
	}
	if refreshToken == "" {
		return Session{}, domainagg.NewError(domainagg.CodeValidation, op, "refresh_token is required", nil)
	}

	var (
		session Session
		expired bool
	)
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return domainagg.NewError(domainagg.CodeForbidden, op, "invalid refresh token", nil)
		}
		existing := found[0]
		if err := as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return err
		}
		now := as.now()
		// the stale row is still removed, so commit and report afterwards
		if !existing.ExpiresAt.After(now) {
			expired = true
			return nil
		}
		session, err = as.issue(dbc, existing.UserID, now)
		return err
	})
	if err != nil {
		return Session{}, aggregates.MapError(op, err)
	}
	if expired {
		return Session{}, domainagg.NewError(domainagg.CodeForbidden, op, "refresh token expired", nil)
	}
	return session, nil
}

func (as *authService) Logout(ctx context.Context) error {
	const op = "Auth.Logout"
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return domainagg.NewError(domainagg.CodeForbidden, op, "not authenticated", nil)
	}
	dbc := dbctx.Background(ctx)
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{rd.TokenString})
	if err != nil {
		return aggregates.MapError(op, err)
	}
	if len(found) == 0 {
		return nil
	}
	if err := as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{found[0].ID}); err != nil {
		return aggregates.MapError(op, err)
	}
	as.log.Info("user logged out", "user_id", rd.UserID)
	return nil
}

func (as *authService) Me(ctx context.Context) (*types.User, error) {
	const op = "Auth.Me"
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == 0 {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "not authenticated", nil)
	}
	users, err := as.userRepo.GetByIDs(dbctx.Background(ctx), []int64{rd.UserID})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if len(users) == 0 {
		return nil, domainagg.Errorf(domainagg.CodeNotFound, op, "user %d not found", rd.UserID)
	}
	return users[0], nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "Auth.SetContextFromToken"
	if tokenString == "" {
		return ctx, nil
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, domainagg.NewError(domainagg.CodeForbidden, op, "invalid or expired token", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, domainagg.NewError(domainagg.CodeForbidden, op, "invalid or expired token", nil)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return ctx, domainagg.NewError(domainagg.CodeForbidden, op, "invalid subject in token", err)
	}

	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.Background(ctx), []string{tokenString})
	if err != nil {
		return ctx, aggregates.MapError(op, err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return ctx, domainagg.NewError(domainagg.CodeForbidden, op, "session no longer active", nil)
	}

	rd := &ctxutil.RequestData{
		TokenString:  tokenString,
		RefreshToken: found[0].RefreshToken,
		UserID:       userID,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := as.userTokenRepo.DeleteExpired(dbctx.Background(ctx), as.now())
	if err != nil {
		return 0, aggregates.MapError("Auth.CleanupExpiredTokens", err)
	}
	if n > 0 {
		as.log.Info("expired tokens removed", "count", n)
	}
	return n, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.cfg.AccessTTL
}

func (as *authService) issue(dbc dbctx.Context, userID int64, now time.Time) (Session, error) {
	access, err := as.generateAccessToken(userID, now)
	if err != nil {
		return Session{}, fmt.Errorf("generate access token: %w", err)
	}
	tok := &types.UserToken{
		ID:           uuid.New(),
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    now.Add(as.cfg.RefreshTTL),
		CreatedAt:    now,
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{tok}); err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:  access,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    int(as.cfg.AccessTTL.Seconds()),
	}, nil
}

func (as *authService) generateAccessToken(userID int64, now time.Time) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.cfg.JWTSecretKey))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
