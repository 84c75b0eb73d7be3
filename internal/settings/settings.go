package settings

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	"github.com/delloop-lab/taskorilla-sub000/internal/models"
)

// DefaultFeePercent applies when platform_fee_percent has never been set.
const DefaultFeePercent = 10

// PlatformSettings reads operator-tunable values from the key/value table.
type PlatformSettings struct {
	db *gorm.DB
}

func New(db *gorm.DB) *PlatformSettings {
	return &PlatformSettings{db: db}
}

func (s *PlatformSettings) Get(ctx context.Context, key string) (string, bool) {
	var row models.PlatformSetting
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("settings: failed to read %s: %v", key, err)
		}
		return "", false
	}
	return row.Value, true
}

func (s *PlatformSettings) Set(ctx context.Context, key, value string) error {
	row := models.PlatformSetting{Key: key, Value: value}
	return s.db.WithContext(ctx).Save(&row).Error
}

// FeePercent returns the configured platform fee percentage, falling back
// to DefaultFeePercent on a missing or unparseable value.
func (s *PlatformSettings) FeePercent(ctx context.Context) decimal.Decimal {
	raw, ok := s.Get(ctx, constants.SettingPlatformFeePercent)
	if !ok {
		return decimal.NewFromInt(DefaultFeePercent)
	}

	percent, err := decimal.NewFromString(raw)
	if err != nil || percent.IsNegative() {
		log.Printf("settings: invalid %s value %q, using default", constants.SettingPlatformFeePercent, raw)
		return decimal.NewFromInt(DefaultFeePercent)
	}

	return percent
}
