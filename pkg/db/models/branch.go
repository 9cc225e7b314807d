package models

import (
	"time"

	"github.com/google/uuid"
)

// Branch is a stock location. The central warehouse is an ordinary row with
// Code "central"; nothing in the stock or transfer paths treats it specially.
type Branch struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string    `gorm:"column:code;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	Address   string    `gorm:"column:address;not null;default:''"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CentralBranchCode is the reserved code for the central warehouse row.
const CentralBranchCode = "central"
