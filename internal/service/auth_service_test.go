package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JetsadaSomporn/docverify-api/internal/dto"
	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

type stubVerifier struct {
	email     string
	firstName string
	lastName  string
}

func (s stubVerifier) AuthURL(state string) string {
	return "https://accounts.example.com/consent?state=" + state
}

func (s stubVerifier) Verify(context.Context, string) (string, string, string, error) {
	return s.email, s.firstName, s.lastName, nil
}

func newAuthServiceForTest(users *memoryUserRepo, verifier IdentityVerifier) AuthService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewAuthService(users, verifier, validate, "test-secret", testLogger())
}

func TestAuthServiceRegisterNormalizesStudentID(t *testing.T) {
	users := newMemoryUserRepo()
	svc := newAuthServiceForTest(users, nil)

	session, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:     "somchai.p@kkumail.com",
		Password:  "password123",
		FirstName: "Somchai",
		LastName:  "Prasert",
		StudentID: "65-3021-112-2",
	})
	require.NoError(t, err)
	require.Equal(t, "6530211122", session.User.StudentID)
	require.Equal(t, []string{models.RoleStudent}, session.User.Roles)
	require.NotEmpty(t, session.Token)
}

func TestAuthServiceRegisterRejectsBadStudentID(t *testing.T) {
	users := newMemoryUserRepo()
	svc := newAuthServiceForTest(users, nil)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:     "somchai.p@kkumail.com",
		Password:  "password123",
		FirstName: "Somchai",
		LastName:  "Prasert",
		StudentID: "12345",
	})
	require.ErrorIs(t, err, ErrInvalidStudentID)
}

func TestAuthServiceRegisterRejectsStaffDomain(t *testing.T) {
	users := newMemoryUserRepo()
	svc := newAuthServiceForTest(users, nil)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:     "ajarn@kku.ac.th",
		Password:  "password123",
		FirstName: "Ajarn",
		LastName:  "Dee",
		StudentID: "6530211122",
	})
	require.ErrorIs(t, err, ErrDomainNotAllowed)
}

func TestAuthServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	users := newMemoryUserRepo()
	svc := newAuthServiceForTest(users, nil)

	payload := dto.RegisterRequest{
		Email:     "somchai.p@kkumail.com",
		Password:  "password123",
		FirstName: "Somchai",
		LastName:  "Prasert",
		StudentID: "6530211122",
	}
	_, err := svc.Register(context.Background(), payload)
	require.NoError(t, err)

	payload.StudentID = "6530211123"
	_, err = svc.Register(context.Background(), payload)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	users := newMemoryUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	hashString := string(hash)
	require.NoError(t, users.Create(context.Background(), &models.User{
		Email:        "somchai.p@kkumail.com",
		PasswordHash: &hashString,
		Roles:        []string{models.RoleStudent},
	}))

	svc := newAuthServiceForTest(users, nil)

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email:    "somchai.p@kkumail.com",
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceLoginOAuthOnlyAccount(t *testing.T) {
	users := newMemoryUserRepo()
	require.NoError(t, users.Create(context.Background(), &models.User{
		Email: "ajarn@kku.ac.th",
		Roles: []string{models.RoleStaff},
	}))

	svc := newAuthServiceForTest(users, nil)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "ajarn@kku.ac.th",
		Password: "anything",
	})
	require.ErrorIs(t, err, ErrNoPasswordSet)
}

func TestAuthServiceOAuthCallbackMapsRolesByDomain(t *testing.T) {
	cases := []struct {
		name  string
		email string
		role  string
	}{
		{name: "student domain", email: "somchai.p@kkumail.com", role: models.RoleStudent},
		{name: "staff domain", email: "ajarn@kku.ac.th", role: models.RoleStaff},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := newMemoryUserRepo()
			svc := newAuthServiceForTest(users, stubVerifier{email: tc.email, firstName: "First", lastName: "Last"})

			session, err := svc.OAuthCallback(context.Background(), "auth-code")
			require.NoError(t, err)
			require.Equal(t, []string{tc.role}, session.User.Roles)
			require.Empty(t, session.User.StudentID)
		})
	}
}

func TestAuthServiceOAuthCallbackRejectsForeignDomain(t *testing.T) {
	users := newMemoryUserRepo()
	svc := newAuthServiceForTest(users, stubVerifier{email: "someone@gmail.com"})

	_, err := svc.OAuthCallback(context.Background(), "auth-code")
	require.ErrorIs(t, err, ErrDomainNotAllowed)
}

func TestAuthServiceOAuthCallbackReusesExistingAccount(t *testing.T) {
	users := newMemoryUserRepo()
	require.NoError(t, users.Create(context.Background(), &models.User{
		Email: "ajarn@kku.ac.th",
		Roles: []string{models.RoleStaff, models.RoleTeacher},
	}))

	svc := newAuthServiceForTest(users, stubVerifier{email: "ajarn@kku.ac.th"})

	session, err := svc.OAuthCallback(context.Background(), "auth-code")
	require.NoError(t, err)
	require.Contains(t, session.User.Roles, models.RoleTeacher)
	require.Len(t, users.users, 1)
}

func TestAuthServiceOAuthNotConfigured(t *testing.T) {
	svc := newAuthServiceForTest(newMemoryUserRepo(), nil)

	_, err := svc.OAuthRedirect("state")
	require.ErrorIs(t, err, ErrOAuthNotConfigured)

	_, err = svc.OAuthCallback(context.Background(), "code")
	require.ErrorIs(t, err, ErrOAuthNotConfigured)
}
