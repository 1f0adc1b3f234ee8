package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clip_service/internal/pipeline/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrItemNotFound item row does not exist
var ErrItemNotFound = errors.New("item not found")

// ItemRepo definition item / asset persistence used by the pipeline
type ItemRepo interface {
	AutoMigrate() error
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	UpdateStatus(ctx context.Context, id string, status domain.ItemStatus) error
	// MarkLive set status live, published_at only when it is still null
	MarkLive(ctx context.Context, id string, now time.Time) (*domain.Item, error)
	UpsertAsset(ctx context.Context, asset *domain.Asset) error
	ListAssetTypes(ctx context.Context, itemID string) ([]domain.AssetType, error)
}

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepo create ItemRepo
func NewItemRepo(db *gorm.DB) ItemRepo {
	return &itemRepo{db: db}
}

// AutoMigrate 依模型建立或補齊 items / assets 資料表，不會刪欄位
func (r *itemRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Item{}, &domain.Asset{})
}

func (r *itemRepo) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) UpdateStatus(ctx context.Context, id string, status domain.ItemStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Item{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return nil
}

// MarkLive 單一 UPDATE 完成狀態轉換，COALESCE 保證 published_at 只寫一次
func (r *itemRepo) MarkLive(ctx context.Context, id string, now time.Time) (*domain.Item, error) {
	var item domain.Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Item{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":       domain.ItemLive,
			"published_at": gorm.Expr("COALESCE(published_at, ?)", now),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return tx.First(&item, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertAsset 以 (item_id, asset_type) 為 key，重跑時覆蓋舊資料
func (r *itemRepo) UpsertAsset(ctx context.Context, asset *domain.Asset) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}, {Name: "asset_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"storage_key", "cdn_url", "mime_type", "size_bytes", "updated_at"}),
	}).Create(asset).Error
}

func (r *itemRepo) ListAssetTypes(ctx context.Context, itemID string) ([]domain.AssetType, error) {
	var types []domain.AssetType
	if err := r.db.WithContext(ctx).Model(&domain.Asset{}).
		Where("item_id = ?", itemID).
		Distinct().
		Pluck("asset_type", &types).Error; err != nil {
		return nil, err
	}
	return types, nil
}
