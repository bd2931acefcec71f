package usecase

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/domain"
)

// TierUseCase resolves users' fee schedules, with a read-through cache in
// front of the tier table. It implements TierService.
type TierUseCase struct {
	userRepo UserRepository
	tierRepo TierRepository
	cache    Cache
	logger   zerolog.Logger
}

// NewTierUseCase creates a new TierUseCase. cache may be nil.
func NewTierUseCase(userRepo UserRepository, tierRepo TierRepository, cache Cache, logger zerolog.Logger) *TierUseCase {
	return &TierUseCase{
		userRepo: userRepo,
		tierRepo: tierRepo,
		cache:    cache,
		logger:   logger,
	}
}

// GetUserTierInfo returns the fee tier assigned to the user.
func (uc *TierUseCase) GetUserTierInfo(ctx context.Context, userID string) (*domain.Tier, error) {
	if tier := uc.cachedTier(ctx, userID); tier != nil {
		return tier, nil
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tier, err := uc.tierRepo.GetByID(ctx, user.TierID)
	if err != nil {
		return nil, err
	}

	uc.cacheTier(ctx, userID, tier)

	return tier, nil
}

// ListTiers returns all fee tiers.
func (uc *TierUseCase) ListTiers(ctx context.Context) ([]*domain.Tier, error) {
	return uc.tierRepo.List(ctx)
}

func tierCacheKey(userID string) string {
	return "tier:user:" + userID
}

func (uc *TierUseCase) cachedTier(ctx context.Context, userID string) *domain.Tier {
	if uc.cache == nil {
		return nil
	}

	data, err := uc.cache.Get(ctx, tierCacheKey(userID))
	if err != nil || data == nil {
		return nil
	}

	var tier domain.Tier
	if err := json.Unmarshal(data, &tier); err != nil {
		return nil
	}

	return &tier
}

func (uc *TierUseCase) cacheTier(ctx context.Context, userID string, tier *domain.Tier) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(tier)
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, tierCacheKey(userID), data, TierCacheTTL); err != nil {
		uc.logger.Debug().Err(err).Str("user_id", userID).Msg("tier cache write failed")
	}
}
