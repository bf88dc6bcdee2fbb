package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is an account on the label platform. Artists accumulate royalty
// balance; admins upload financial reports. Authentication and profile
// management live outside this service.
type User struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Email     *string         `gorm:"size:100;unique" json:"email"`
	Role      UserRole        `gorm:"type:enum('A', 'M', 'U');default:U" json:"role"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	IsActive  *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IncrementUserBalance applies a royalty delta as a relative update.
// The balance column is only ever incremented, never set, so concurrent
// increments for different jobs cannot clobber each other.
func IncrementUserBalance(tx *gorm.DB, userId int, delta decimal.Decimal) error {
	return tx.Model(&User{}).
		Where("id = ?", userId).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
}
