package model

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Journal 交易流水存储. 数据库未启用时使用 NopJournal
type Journal interface {
	Record(ctx context.Context, rec *TxRecord) error
	UpdateStatus(ctx context.Context, hash, status string, height uint64, failure string) error
	Recent(ctx context.Context, from string, limit int) ([]TxRecord, error)
}

// GormJournal 基于 gorm 的实现
type GormJournal struct {
	db *gorm.DB
}

// NewGormJournal 自动迁移后返回 Journal
func NewGormJournal(db *gorm.DB) (*GormJournal, error) {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormJournal{db: db}, nil
}

func (j *GormJournal) Record(ctx context.Context, rec *TxRecord) error {
	return j.db.WithContext(ctx).Create(rec).Error
}

func (j *GormJournal) UpdateStatus(ctx context.Context, hash, status string, height uint64, failure string) error {
	return j.db.WithContext(ctx).
		Model(&TxRecord{}).
		Where("tx_hash = ?", hash).
		Updates(map[string]interface{}{
			"status":       status,
			"block_height": height,
			"failure":      failure,
		}).Error
}

func (j *GormJournal) Recent(ctx context.Context, from string, limit int) ([]TxRecord, error) {
	var out []TxRecord
	err := j.db.WithContext(ctx).
		Where("from_address = ?", from).
		Order("id desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// NopJournal 不做任何记录
type NopJournal struct{}

func (NopJournal) Record(context.Context, *TxRecord) error { return nil }

func (NopJournal) UpdateStatus(context.Context, string, string, uint64, string) error { return nil }

func (NopJournal) Recent(context.Context, string, int) ([]TxRecord, error) { return nil, nil }
