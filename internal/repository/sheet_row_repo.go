package repository

import (
	"time"

	"gorm.io/gorm"
)

// SheetRow stores one row service record in SQL for self-hosted
// deployments. Data keeps the record as a JSON object keyed by column.
type SheetRow struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Sheet     string            `gorm:"type:varchar(50);index;not null" json:"sheet"`
	Data      map[string]string `gorm:"type:text;serializer:json" json:"data"`
	CreatedAt time.Time         `json:"created_at"`
}

func (SheetRow) TableName() string {
	return "sheet_rows"
}

type SheetRowRepository interface {
	FindBySheet(sheet string) ([]SheetRow, error)
	Create(row *SheetRow) error
	ReplaceSheet(sheet string, data []map[string]string) error
	Migrate() error
}

type sheetRowRepo struct {
	db *gorm.DB
}

func NewSheetRowRepo(db *gorm.DB) SheetRowRepository {
	return &sheetRowRepo{db}
}

func (r *sheetRowRepo) Migrate() error {
	return r.db.AutoMigrate(&SheetRow{})
}

// FindBySheet returns the sheet's rows in insertion order.
func (r *sheetRowRepo) FindBySheet(sheet string) ([]SheetRow, error) {
	var out []SheetRow
	err := r.db.Where("sheet = ?", sheet).Order("id asc").Find(&out).Error
	return out, err
}

func (r *sheetRowRepo) Create(row *SheetRow) error {
	return r.db.Create(row).Error
}

// ReplaceSheet swaps the whole content of a sheet inside one transaction.
func (r *sheetRowRepo) ReplaceSheet(sheet string, data []map[string]string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sheet = ?", sheet).Delete(&SheetRow{}).Error; err != nil {
			return err
		}
		if len(data) == 0 {
			return nil
		}
		batch := make([]SheetRow, 0, len(data))
		for _, d := range data {
			batch = append(batch, SheetRow{Sheet: sheet, Data: d})
		}
		return tx.Create(&batch).Error
	})
}
