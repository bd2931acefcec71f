package usecase_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/internal/usecase/mocks"
)

func TestTierUseCase_GetUserTierInfo(t *testing.T) {
	t.Run("cache miss falls through and writes back", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockCache(ctrl)

		userRepo := mocks.NewMockUserRepository()
		tierRepo := mocks.NewMockTierRepository()

		tierRepo.AddTier(standardTier())
		userRepo.AddUser(&domain.User{ID: "user-1", TierID: "standard", Active: true})

		cache.EXPECT().Get(gomock.Any(), "tier:user:user-1").Return(nil, nil)
		cache.EXPECT().Set(gomock.Any(), "tier:user:user-1", gomock.Any(), usecase.TierCacheTTL).Return(nil)

		uc := usecase.NewTierUseCase(userRepo, tierRepo, cache, zerolog.Nop())

		tier, err := uc.GetUserTierInfo(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "standard", tier.ID)
	})

	t.Run("cache hit skips the repositories", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockCache(ctrl)

		cached, err := json.Marshal(standardTier())
		require.NoError(t, err)
		cache.EXPECT().Get(gomock.Any(), "tier:user:user-1").Return(cached, nil)

		userRepo := mocks.NewMockUserRepository()
		userRepo.GetByIDFunc = func(ctx context.Context, id string) (*domain.User, error) {
			t.Fatal("user repo must not be hit on a cache hit")
			return nil, nil
		}

		uc := usecase.NewTierUseCase(userRepo, mocks.NewMockTierRepository(), cache, zerolog.Nop())

		tier, err := uc.GetUserTierInfo(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Standard", tier.DisplayName)
	})

	t.Run("unknown user", func(t *testing.T) {
		uc := usecase.NewTierUseCase(mocks.NewMockUserRepository(), mocks.NewMockTierRepository(), nil, zerolog.Nop())

		_, err := uc.GetUserTierInfo(context.Background(), "ghost")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("unknown tier", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository()
		userRepo.AddUser(&domain.User{ID: "user-1", TierID: "missing", Active: true})

		uc := usecase.NewTierUseCase(userRepo, mocks.NewMockTierRepository(), nil, zerolog.Nop())

		_, err := uc.GetUserTierInfo(context.Background(), "user-1")
		assert.ErrorIs(t, err, domain.ErrTierNotFound)
	})
}

func TestTierUseCase_ListTiers(t *testing.T) {
	tierRepo := mocks.NewMockTierRepository()
	tierRepo.AddTier(&domain.Tier{ID: "premium", DisplayName: "Premium", Level: 2})
	tierRepo.AddTier(standardTier())

	uc := usecase.NewTierUseCase(mocks.NewMockUserRepository(), tierRepo, nil, zerolog.Nop())

	tiers, err := uc.ListTiers(context.Background())
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, "standard", tiers[0].ID, "tiers sorted by level")
}
