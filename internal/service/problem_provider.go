package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/skillforge/arena-api/internal/models"
	"github.com/skillforge/arena-api/internal/repository"
)

// ProblemProvider answers whether a problem exists and exposes its reward
// amount and evaluation context.
type ProblemProvider interface {
	GetProblem(ctx context.Context, id uint) (models.Problem, error)
}

type cachedProblemProvider struct {
	problems repository.ProblemRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewProblemProvider wraps the problem repository with a read-through redis
// cache. Problems are read-only to the engine, so a short TTL bounds
// staleness without any invalidation protocol.
func NewProblemProvider(problems repository.ProblemRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProblemProvider {
	return &cachedProblemProvider{
		problems: problems,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "problem_provider").Logger(),
	}
}

func (p *cachedProblemProvider) GetProblem(ctx context.Context, id uint) (models.Problem, error) {
	cacheKey := fmt.Sprintf("problem:%d", id)

	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, cacheKey).Result(); err == nil {
			var problem models.Problem
			if unmarshalErr := json.Unmarshal([]byte(cached), &problem); unmarshalErr == nil {
				p.logger.Debug().Uint("problem_id", id).Msg("problem cache hit")
				return problem, nil
			}
		} else if err != redis.Nil {
			p.logger.Warn().Err(err).Msg("failed to read problem cache")
		}
	}

	problem, err := p.problems.GetByID(ctx, id)
	if err != nil {
		return models.Problem{}, err
	}

	if p.cache != nil {
		if payload, err := json.Marshal(problem); err == nil {
			if err := p.cache.Set(ctx, cacheKey, payload, p.cacheTTL).Err(); err != nil {
				p.logger.Warn().Err(err).Msg("failed to store problem cache")
			}
		}
	}

	return problem, nil
}
