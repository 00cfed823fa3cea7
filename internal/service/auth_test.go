package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
	apperrors "github.com/Egem97/ttl-apg/internal/errors"
	"github.com/Egem97/ttl-apg/internal/mocks"
	"github.com/Egem97/ttl-apg/internal/ports"
)

func testClaims() domainauth.UserClaims {
	return domainauth.UserClaims{
		UserID:    42,
		Username:  "jdoe",
		CompanyID: 7,
		Role:      domainauth.RoleAnalyst,
	}
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	authn := mocks.NewMockUserAuthenticator(ctrl)
	sessions := mocks.NewMockSessionStore(ctrl)
	svc := NewAuthService(AuthServiceOptions{Authenticator: authn, Sessions: sessions})

	claims := testClaims()
	meta := domainauth.RequestMeta{IPAddress: "203.0.113.9"}
	sess := domainauth.Session{ID: "sid-1", UserID: 42, CompanyID: 7}

	authn.EXPECT().Authenticate(gomock.Any(), "jdoe", "pw").Return(claims, nil)
	sessions.EXPECT().Create(gomock.Any(), claims, meta).Return("sid-1", nil)
	sessions.EXPECT().Get(gomock.Any(), "sid-1").Return(sess, nil)

	res, err := svc.Login(context.Background(), LoginInput{Username: "jdoe", Password: "pw", Meta: meta})
	require.NoError(t, err)
	assert.Equal(t, "sid-1", res.SessionID)
	assert.Equal(t, sess, res.Session)
}

func TestLogin_MissingCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewAuthService(AuthServiceOptions{
		Authenticator: mocks.NewMockUserAuthenticator(ctrl),
		Sessions:      mocks.NewMockSessionStore(ctrl),
	})

	_, err := svc.Login(context.Background(), LoginInput{Username: "jdoe"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Login(context.Background(), LoginInput{Password: "pw"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	authn := mocks.NewMockUserAuthenticator(ctrl)
	svc := NewAuthService(AuthServiceOptions{
		Authenticator: authn,
		Sessions:      mocks.NewMockSessionStore(ctrl),
	})

	authn.EXPECT().Authenticate(gomock.Any(), "jdoe", "wrong").
		Return(domainauth.UserClaims{}, ports.ErrInvalidCredentials)

	_, err := svc.Login(context.Background(), LoginInput{Username: "jdoe", Password: "wrong"})
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestLogin_StoreFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	authn := mocks.NewMockUserAuthenticator(ctrl)
	sessions := mocks.NewMockSessionStore(ctrl)
	svc := NewAuthService(AuthServiceOptions{Authenticator: authn, Sessions: sessions})

	authn.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).Return(testClaims(), nil)
	sessions.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", apperrors.StoreUnavailable("create session", errors.New("down")))

	_, err := svc.Login(context.Background(), LoginInput{Username: "u", Password: "p"})
	assert.True(t, apperrors.IsStoreUnavailable(err))
}

func TestGetSession_EmptyID(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewAuthService(AuthServiceOptions{Sessions: mocks.NewMockSessionStore(ctrl)})

	_, err := svc.GetSession(context.Background(), "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestLogout(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockSessionStore(ctrl)
	svc := NewAuthService(AuthServiceOptions{Sessions: sessions})

	t.Run("empty session ID is a no-op", func(t *testing.T) {
		assert.NoError(t, svc.Logout(context.Background(), ""))
	})

	t.Run("already-invalid session still succeeds", func(t *testing.T) {
		sessions.EXPECT().Invalidate(gomock.Any(), "gone").Return(false, nil)
		assert.NoError(t, svc.Logout(context.Background(), "gone"))
	})
}

func TestLogoutAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockSessionStore(ctrl)
	svc := NewAuthService(AuthServiceOptions{Sessions: sessions})

	sessions.EXPECT().InvalidateAllForUser(gomock.Any(), int64(42)).Return(3, nil)

	n, err := svc.LogoutAll(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
