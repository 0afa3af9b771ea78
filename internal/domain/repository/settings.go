package repository

import (
	"context"

	"github.com/suravi/checkout/internal/domain/model"
)

// SettingsRepository reads the store settings singleton.
type SettingsRepository interface {
	Get(ctx context.Context) (*model.Settings, error)
}
