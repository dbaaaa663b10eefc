package skill

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"go-skillmatrix/internal/shared/contextutil"
	skillerrors "go-skillmatrix/internal/skill/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	SkillCatalogKey = "skills:all"
	skillCatalogTTL = time.Hour
)

type Service interface {
	Create(ctx context.Context, req CreateSkillRequest) (SkillResponse, error)
	GetAll(ctx context.Context) ([]SkillResponse, error)
	GetByID(ctx context.Context, id string) (SkillResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	rdb    *redis.Client
	sf     singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("skill.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("skill.service")
	}
	return &service{db: db, repo: repo, rdb: rdb, logger: l}
}

func (s *service) Create(ctx context.Context, req CreateSkillRequest) (SkillResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	name := strings.TrimSpace(req.Name)
	s.logger.Debug("create skill requested", zap.String("request_id", rid), zap.String("name", name))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create skill begin tx failed", zap.Error(err))
		return SkillResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	exists, err := qtx.ExistsByName(ctx, name)
	if err != nil {
		s.logger.Error("create skill check name failed", zap.Error(err))
		return SkillResponse{}, err
	}
	if exists {
		s.logger.Warn("create skill duplicate name", zap.String("name", name))
		return SkillResponse{}, skillerrors.ErrSkillAlreadyExists
	}

	sk := &Skill{ID: uuid.New(), Name: name}
	if d := strings.TrimSpace(req.Description); d != "" {
		sk.Description = &d
	}

	if err := qtx.Create(ctx, sk); err != nil {
		s.logger.Error("create skill persist failed", zap.Error(err))
		return SkillResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create skill commit failed", zap.Error(err))
		return SkillResponse{}, err
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, SkillCatalogKey).Err(); err != nil {
			s.logger.Error("failed to invalidate skill catalogue cache", zap.Error(err))
		}
	}

	s.logger.Info("create skill success", zap.String("request_id", rid), zap.String("skill_id", sk.ID.String()))
	return mapToResponse(*sk), nil
}

func (s *service) GetAll(ctx context.Context) ([]SkillResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, SkillCatalogKey).Result(); err == nil {
			var resp []SkillResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(SkillCatalogKey, func() (interface{}, error) {
		skills, err := s.repo.FindAll(ctx)
		if err != nil {
			s.logger.Error("list skills failed", zap.Error(err))
			return nil, mapRepositoryError(err)
		}

		resp := make([]SkillResponse, len(skills))
		for i, sk := range skills {
			resp[i] = mapToResponse(sk)
		}

		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, SkillCatalogKey, data, skillCatalogTTL).Err(); err != nil {
					s.logger.Warn("cache skill catalogue failed", zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]SkillResponse), nil
}

func (s *service) GetByID(ctx context.Context, id string) (SkillResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return SkillResponse{}, skillerrors.ErrSkillNotFound
	}
	sk, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return SkillResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*sk), nil
}

func mapToResponse(s Skill) SkillResponse {
	return SkillResponse{
		ID:          s.ID.String(),
		Name:        s.Name,
		Description: s.Description,
	}
}
