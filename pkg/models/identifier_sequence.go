package models

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

// IdentifierSequence hands out increasing numbers per prefix. It backs
// handle suffix allocation.
type IdentifierSequence struct {
	Prefix    string `gorm:"type:varchar(128);primaryKey" json:"prefix"`
	LastValue int64  `gorm:"not null;default:0" json:"lastValue"`
}

// TableName specifies the table name.
func (IdentifierSequence) TableName() string {
	return "identifier_sequences"
}

// NextSequenceValue increments and returns the sequence for prefix,
// creating it on first use. Call it inside a transaction.
func NextSequenceValue(tx *gorm.DB, prefix string) (int64, error) {
	if err := validation.Validate(prefix, validation.Required); err != nil {
		return 0, fmt.Errorf("invalid prefix: %w", err)
	}

	result := tx.Model(&IdentifierSequence{}).
		Where("prefix = ?", prefix).
		UpdateColumn("last_value", gorm.Expr("last_value + ?", 1))
	if result.Error != nil {
		return 0, fmt.Errorf("error incrementing sequence: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		seq := IdentifierSequence{Prefix: prefix, LastValue: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, fmt.Errorf("error creating sequence: %w", err)
		}
		return seq.LastValue, nil
	}

	var seq IdentifierSequence
	if err := tx.Where("prefix = ?", prefix).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("error reading sequence: %w", err)
	}
	return seq.LastValue, nil
}
