package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-skillmatrix/internal/auth"
	autherrors "go-skillmatrix/internal/auth/errors"
	authMock "go-skillmatrix/internal/auth/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db, _, _ := sqlmock.New()
	defer db.Close()

	mockRepo := authMock.NewMockRepository(ctrl)
	service := auth.NewService(db, mockRepo, testSecret, time.Hour)
	ctx := context.Background()

	password := "password123"
	pw, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	mockUser := &auth.User{
		ID:           uuid.New(),
		Email:        "manager@example.com",
		PasswordHash: string(pw),
		Role:         "MANAGER",
	}

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().
			GetByEmail(ctx, mockUser.Email).
			Return(mockUser, nil)

		token, resp, err := service.Login(ctx, mockUser.Email, password)

		assert.NoError(t, err)
		assert.Equal(t, mockUser.Email, resp.Email)
		assert.Equal(t, "MANAGER", resp.Role)

		parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		assert.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, mockUser.ID.String(), claims["user_id"])
		assert.Equal(t, "MANAGER", claims["role"])
	})

	t.Run("negative - wrong password", func(t *testing.T) {
		mockRepo.EXPECT().
			GetByEmail(ctx, mockUser.Email).
			Return(mockUser, nil)

		_, _, err := service.Login(ctx, mockUser.Email, "wrongpass")
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("negative - unknown email", func(t *testing.T) {
		mockRepo.EXPECT().
			GetByEmail(ctx, "ghost@example.com").
			Return(nil, gorm.ErrRecordNotFound)

		_, _, err := service.Login(ctx, "ghost@example.com", password)
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (auth.Service, *authMock.MockRepository, sqlmock.Sqlmock) {
		ctrl := gomock.NewController(t)
		db, sqlMock, _ := sqlmock.New()
		t.Cleanup(func() { db.Close() })
		repo := authMock.NewMockRepository(ctrl)
		return auth.NewService(db, repo, testSecret, time.Hour), repo, sqlMock
	}

	t.Run("success defaults role to employee", func(t *testing.T) {
		service, repo, sqlMock := setup(t)
		expectTx(t, sqlMock, true)

		repo.EXPECT().WithTx(gomock.Any()).Return(repo)
		repo.EXPECT().GetByEmail(ctx, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
		repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, u *auth.User) error {
				assert.Equal(t, "new@example.com", u.Email)
				assert.Equal(t, "EMPLOYEE", u.Role)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")))
				return nil
			})

		resp, err := service.Register(ctx, auth.RegisterRequest{Email: "New@Example.com", Password: "password123"})

		assert.NoError(t, err)
		assert.Equal(t, "new@example.com", resp.Email)
		assert.Equal(t, "EMPLOYEE", resp.Role)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("negative - user already exists", func(t *testing.T) {
		service, repo, sqlMock := setup(t)
		expectTx(t, sqlMock, false)

		repo.EXPECT().WithTx(gomock.Any()).Return(repo)
		repo.EXPECT().GetByEmail(ctx, "dup@example.com").Return(&auth.User{ID: uuid.New()}, nil)

		_, err := service.Register(ctx, auth.RegisterRequest{Email: "dup@example.com", Password: "password123", Role: "HR"})

		assert.ErrorIs(t, err, autherrors.ErrUserAlreadyExists)
	})

	t.Run("negative - unique violation on insert", func(t *testing.T) {
		service, repo, sqlMock := setup(t)
		expectTx(t, sqlMock, false)

		repo.EXPECT().WithTx(gomock.Any()).Return(repo)
		repo.EXPECT().GetByEmail(ctx, "race@example.com").Return(nil, gorm.ErrRecordNotFound)
		repo.EXPECT().Create(ctx, gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"})

		_, err := service.Register(ctx, auth.RegisterRequest{Email: "race@example.com", Password: "password123"})

		assert.ErrorIs(t, err, autherrors.ErrUserAlreadyExists)
	})

	t.Run("negative - invalid role", func(t *testing.T) {
		service, _, _ := setup(t)

		_, err := service.Register(ctx, auth.RegisterRequest{Email: "x@example.com", Password: "password123", Role: "OWNER"})

		assert.ErrorIs(t, err, autherrors.ErrInvalidRole)
	})

	t.Run("negative - lookup failure", func(t *testing.T) {
		service, repo, sqlMock := setup(t)
		expectTx(t, sqlMock, false)

		repo.EXPECT().WithTx(gomock.Any()).Return(repo)
		repo.EXPECT().GetByEmail(ctx, "x@example.com").Return(nil, errors.New("db down"))

		_, err := service.Register(ctx, auth.RegisterRequest{Email: "x@example.com", Password: "password123"})

		assert.EqualError(t, err, "db down")
	})
}

func TestService_GetMe(t *testing.T) {
	ctrl := gomock.NewController(t)
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := authMock.NewMockRepository(ctrl)
	service := auth.NewService(db, repo, testSecret, time.Hour)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		id := uuid.New()
		repo.EXPECT().GetByID(ctx, id).Return(&auth.User{ID: id, Email: "me@example.com", Role: "HR"}, nil)

		resp, err := service.GetMe(ctx, id.String())

		assert.NoError(t, err)
		assert.Equal(t, "HR", resp.Role)
	})

	t.Run("negative - invalid id", func(t *testing.T) {
		_, err := service.GetMe(ctx, "nope")
		assert.ErrorIs(t, err, autherrors.ErrInvalidUserID)
	})

	t.Run("negative - not found", func(t *testing.T) {
		id := uuid.New()
		repo.EXPECT().GetByID(ctx, id).Return(nil, gorm.ErrRecordNotFound)

		_, err := service.GetMe(ctx, id.String())
		assert.ErrorIs(t, err, autherrors.ErrUserNotFound)
	})
}
