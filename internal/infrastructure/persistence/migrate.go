package persistence

import (
	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/factorpool/backend/internal/domain/pool"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for every persisted type
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&pool.State{},
		&pool.RedemptionQueueEntry{},
		&factoring.InvoiceApproval{},
		&factoring.ImpairmentRecord{},
		&Receivable{},
		&UnitBalance{},
		&ActorRole{},
	)
}
