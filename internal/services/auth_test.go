package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	repotest "github.com/yungbote/leancanvas-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/leancanvas-backend/internal/domain/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/platform/ctxutil"
	"github.com/yungbote/leancanvas-backend/internal/platform/dbctx"
)

type authHarness struct {
	*fixture
	svc   *authService
	clock time.Time
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()
	f := newFixture(t)
	h := &authHarness{fixture: f, clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewAuthService(f.db, repotest.Logger(t), f.users, f.tokens, AuthConfig{
		JWTSecretKey:      "test-secret",
		AccessTTL:         10 * time.Minute,
		RefreshTTL:        time.Hour,
		MaxFailedAttempts: 3,
		LockDuration:      15 * time.Minute,
	}).(*authService)
	svc.now = func() time.Time { return h.clock }
	h.svc = svc
	return h
}

func TestRegisterValidatesAndRejectsDuplicates(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	email := repotest.UniqueEmail("reg")

	u, err := h.svc.Register(ctx, "  "+email+" ", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, email, u.Email)
	require.NotEqual(t, "correct-horse", u.PasswordHash)

	_, err = h.svc.Register(ctx, email, "another-password")
	requireCode(t, err, domainagg.CodeConflict)

	_, err = h.svc.Register(ctx, "not-an-email", "correct-horse")
	requireCode(t, err, domainagg.CodeValidation)

	_, err = h.svc.Register(ctx, repotest.UniqueEmail("short"), "short")
	requireCode(t, err, domainagg.CodeValidation)
}

func TestLoginIssuesSessionAndAuthenticates(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	email := repotest.UniqueEmail("login")
	u, err := h.svc.Register(ctx, email, "correct-horse")
	require.NoError(t, err)

	sess, err := h.svc.Login(ctx, email, "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, sess.AccessToken)
	require.NotEmpty(t, sess.RefreshToken)
	require.Equal(t, 600, sess.ExpiresIn)

	authed, err := h.svc.SetContextFromToken(ctx, sess.AccessToken)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(authed)
	require.NotNil(t, rd)
	require.Equal(t, u.ID, rd.UserID)
	require.Equal(t, sess.RefreshToken, rd.RefreshToken)

	me, err := h.svc.Me(authed)
	require.NoError(t, err)
	require.Equal(t, email, me.Email)

	// a second login replaces the first session
	second, err := h.svc.Login(ctx, email, "correct-horse")
	require.NoError(t, err)
	_, err = h.svc.SetContextFromToken(ctx, sess.AccessToken)
	requireCode(t, err, domainagg.CodeForbidden)
	_, err = h.svc.SetContextFromToken(ctx, second.AccessToken)
	require.NoError(t, err)
}

func TestLoginFailuresLockAccount(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	email := repotest.UniqueEmail("lock")
	_, err := h.svc.Register(ctx, email, "correct-horse")
	require.NoError(t, err)

	_, err = h.svc.Login(ctx, repotest.UniqueEmail("ghost"), "whatever-pass")
	requireCode(t, err, domainagg.CodeForbidden)
	unknownMsg := domainagg.MessageOf(err)

	_, err = h.svc.Login(ctx, email, "wrong-password")
	requireCode(t, err, domainagg.CodeForbidden)
	require.Equal(t, unknownMsg, domainagg.MessageOf(err))

	_, err = h.svc.Login(ctx, email, "wrong-password")
	requireCode(t, err, domainagg.CodeForbidden)
	_, err = h.svc.Login(ctx, email, "wrong-password")
	requireCode(t, err, domainagg.CodeForbidden)
	require.Contains(t, domainagg.MessageOf(err), "locked")

	_, err = h.svc.Login(ctx, email, "correct-horse")
	requireCode(t, err, domainagg.CodeForbidden)
	require.Contains(t, domainagg.MessageOf(err), "locked")

	h.clock = h.clock.Add(16 * time.Minute)
	_, err = h.svc.Login(ctx, email, "correct-horse")
	require.NoError(t, err)

	users, err := h.users.GetByEmails(dbctx.Background(ctx), []string{email})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Zero(t, users[0].FailedLoginCounts)
	require.Nil(t, users[0].LockUntil)
	require.NotNil(t, users[0].LastLogin)
}

func TestRefreshRotatesTokens(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	email := repotest.UniqueEmail("refresh")
	_, err := h.svc.Register(ctx, email, "correct-horse")
	require.NoError(t, err)
	sess, err := h.svc.Login(ctx, email, "correct-horse")
	require.NoError(t, err)

	next, err := h.svc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, sess.RefreshToken, next.RefreshToken)

	_, err = h.svc.Refresh(ctx, sess.RefreshToken)
	requireCode(t, err, domainagg.CodeForbidden)

	_, err = h.svc.Refresh(ctx, "")
	requireCode(t, err, domainagg.CodeValidation)

	h.clock = h.clock.Add(2 * time.Hour)
	_, err = h.svc.Refresh(ctx, next.RefreshToken)
	requireCode(t, err, domainagg.CodeForbidden)
	found, err := h.tokens.GetByRefreshTokens(dbctx.Background(ctx), []string{next.RefreshToken})
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestLogoutAndCleanup(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()
	email := repotest.UniqueEmail("logout")
	_, err := h.svc.Register(ctx, email, "correct-horse")
	require.NoError(t, err)
	sess, err := h.svc.Login(ctx, email, "correct-horse")
	require.NoError(t, err)

	authed, err := h.svc.SetContextFromToken(ctx, sess.AccessToken)
	require.NoError(t, err)
	require.NoError(t, h.svc.Logout(authed))
	_, err = h.svc.SetContextFromToken(ctx, sess.AccessToken)
	requireCode(t, err, domainagg.CodeForbidden)

	err = h.svc.Logout(ctx)
	requireCode(t, err, domainagg.CodeForbidden)

	_, err = h.svc.Login(ctx, email, "correct-horse")
	require.NoError(t, err)
	h.clock = h.clock.Add(2 * time.Hour)
	n, err := h.svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, int64(1))
}

func TestSetContextFromTokenRejectsForeignSignatures(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()

	out, err := h.svc.SetContextFromToken(ctx, "")
	require.NoError(t, err)
	require.Nil(t, ctxutil.GetRequestData(out))

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(h.clock.Add(time.Hour)),
	})
	signed, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = h.svc.SetContextFromToken(ctx, signed)
	requireCode(t, err, domainagg.CodeForbidden)

	_, err = h.svc.SetContextFromToken(ctx, "garbage")
	requireCode(t, err, domainagg.CodeForbidden)

	require.Equal(t, 10*time.Minute, h.svc.GetAccessTTL())
}
