package skill_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-skillmatrix/internal/skill"
	skillerrors "go-skillmatrix/internal/skill/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeSkillRepo struct {
	CreateFn       func(ctx context.Context, s *skill.Skill) error
	FindAllFn      func(ctx context.Context) ([]skill.Skill, error)
	FindByIDFn     func(ctx context.Context, id string) (*skill.Skill, error)
	ExistsByNameFn func(ctx context.Context, name string) (bool, error)
}

func (f *fakeSkillRepo) WithTx(*sql.Tx) skill.Repository { return f }
func (f *fakeSkillRepo) Create(ctx context.Context, s *skill.Skill) error {
	return f.CreateFn(ctx, s)
}
func (f *fakeSkillRepo) FindAll(ctx context.Context) ([]skill.Skill, error) {
	return f.FindAllFn(ctx)
}
func (f *fakeSkillRepo) FindByID(ctx context.Context, id string) (*skill.Skill, error) {
	return f.FindByIDFn(ctx, id)
}
func (f *fakeSkillRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return f.ExistsByNameFn(ctx, name)
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestSkillService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, sqlMock, _ := sqlmock.New()
		defer db.Close()
		rdb, redisMock := redismock.NewClientMock()

		var saved *skill.Skill
		repo := &fakeSkillRepo{
			ExistsByNameFn: func(context.Context, string) (bool, error) { return false, nil },
			CreateFn: func(_ context.Context, s *skill.Skill) error {
				saved = s
				return nil
			},
		}
		expectTx(t, sqlMock, true)
		redisMock.ExpectDel(skill.SkillCatalogKey).SetVal(1)

		resp, err := skill.NewService(db, repo, rdb).Create(ctx, skill.CreateSkillRequest{Name: "Go", Description: "Backend"})

		assert.NoError(t, err)
		assert.Equal(t, "Go", resp.Name)
		assert.Equal(t, "Backend", *saved.Description)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("negative - duplicate", func(t *testing.T) {
		db, sqlMock, _ := sqlmock.New()
		defer db.Close()

		repo := &fakeSkillRepo{
			ExistsByNameFn: func(context.Context, string) (bool, error) { return true, nil },
		}
		expectTx(t, sqlMock, false)

		_, err := skill.NewService(db, repo, nil).Create(ctx, skill.CreateSkillRequest{Name: "Go"})

		assert.ErrorIs(t, err, skillerrors.ErrSkillAlreadyExists)
	})
}

func TestSkillService_GetAll(t *testing.T) {
	ctx := context.Background()

	t.Run("cache miss stores catalogue", func(t *testing.T) {
		db, _, _ := sqlmock.New()
		defer db.Close()
		rdb, redisMock := redismock.NewClientMock()

		id := uuid.New()
		calls := 0
		repo := &fakeSkillRepo{
			FindAllFn: func(context.Context) ([]skill.Skill, error) {
				calls++
				return []skill.Skill{{ID: id, Name: "Go"}}, nil
			},
		}

		expected := []skill.SkillResponse{{ID: id.String(), Name: "Go"}}
		raw, _ := json.Marshal(expected)
		redisMock.ExpectGet(skill.SkillCatalogKey).RedisNil()
		redisMock.ExpectSet(skill.SkillCatalogKey, raw, time.Hour).SetVal("OK")

		resp, err := skill.NewService(db, repo, rdb).GetAll(ctx)

		assert.NoError(t, err)
		assert.Equal(t, expected, resp)
		assert.Equal(t, 1, calls)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("without redis reads repository", func(t *testing.T) {
		db, _, _ := sqlmock.New()
		defer db.Close()

		repo := &fakeSkillRepo{
			FindAllFn: func(context.Context) ([]skill.Skill, error) { return nil, errors.New("db down") },
		}

		_, err := skill.NewService(db, repo, nil).GetAll(ctx)
		assert.EqualError(t, err, "db down")
	})
}

func TestSkillService_GetByID(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	repo := &fakeSkillRepo{
		FindByIDFn: func(context.Context, string) (*skill.Skill, error) { return nil, gorm.ErrRecordNotFound },
	}

	_, err := skill.NewService(db, repo, nil).GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, skillerrors.ErrSkillNotFound)
}
