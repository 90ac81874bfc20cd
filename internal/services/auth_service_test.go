package services_test

import (
	"testing"

	"farmart/internal/apperrors"
	"farmart/internal/models"
	"farmart/internal/repositories"
	"farmart/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService() (*services.AuthService, *repositories.MockUserRepository) {
	repo := repositories.NewMockUserRepository()
	return services.NewAuthService(repo, "test_secret"), repo
}

func farmerAccount() *models.User {
	return &models.User{
		Email:    "wanjiku@example.com",
		Password: "hunter2-but-longer",
		Role:     models.RoleFarmer,
		Name:     "Wanjiku Kamau",
		Phone:    "+254712345678",
		Location: "Nakuru",
	}
}

func TestAuthService_RegisterHashesPassword(t *testing.T) {
	auth, repo := newAuthService()
	user := farmerAccount()

	require.NoError(t, auth.RegisterUser(user))
	assert.NotEmpty(t, user.ID)

	stored, err := repo.GetByEmail("wanjiku@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2-but-longer", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter2-but-longer")))
}

func TestAuthService_RegisterRejectsUnknownRole(t *testing.T) {
	auth, _ := newAuthService()
	user := farmerAccount()
	user.Role = "admin"

	err := auth.RegisterUser(user)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	auth, _ := newAuthService()
	require.NoError(t, auth.RegisterUser(farmerAccount()))

	dup := farmerAccount()
	dup.Name = "Someone Else"
	err := auth.RegisterUser(dup)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAuthService_LoginReturnsValidToken(t *testing.T) {
	auth, _ := newAuthService()
	require.NoError(t, auth.RegisterUser(farmerAccount()))

	user, token, err := auth.LoginUser("wanjiku@example.com", "hunter2-but-longer")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Empty(t, user.Password)
	require.NotEmpty(t, token)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, "wanjiku@example.com", claims["email"])
	assert.Equal(t, string(models.RoleFarmer), claims["role"])
}

func TestAuthService_LoginFailures(t *testing.T) {
	auth, _ := newAuthService()
	require.NoError(t, auth.RegisterUser(farmerAccount()))

	// Wrong password and unknown email answer identically.
	_, _, err := auth.LoginUser("wanjiku@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, _, err = auth.LoginUser("nobody@example.com", "hunter2-but-longer")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_ValidateTokenRejectsGarbage(t *testing.T) {
	auth, _ := newAuthService()

	_, err := auth.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_ValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := repositories.NewMockUserRepository()
	issuer := services.NewAuthService(repo, "secret-a")
	verifier := services.NewAuthService(repo, "secret-b")

	user := farmerAccount()
	require.NoError(t, issuer.RegisterUser(user))
	_, token, err := issuer.LoginUser("wanjiku@example.com", "hunter2-but-longer")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
