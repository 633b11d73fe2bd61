package persistence

import (
	"context"
	"time"

	"github.com/factorpool/backend/internal/domain/factoring"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Role names granted to actors. Each engine operation requires one role.
const (
	RoleDepositor   = "depositor"   // deposit and withdraw
	RoleOriginator  = "originator"  // request funding
	RoleUnderwriter = "underwriter" // approve receivables
	RoleOperator    = "operator"    // settings, reserve, fee withdrawal
)

// operationRoles maps each gated operation to the role that unlocks it
var operationRoles = map[factoring.Operation]string{
	factoring.OperationDeposit:  RoleDepositor,
	factoring.OperationWithdraw: RoleDepositor,
	factoring.OperationFund:     RoleOriginator,
	factoring.OperationApprove:  RoleUnderwriter,
	factoring.OperationOperate:  RoleOperator,
}

// ActorRole is one role grant for an actor
type ActorRole struct {
	Actor     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role      string    `gorm:"type:varchar(32);primaryKey"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (ActorRole) TableName() string {
	return "actor_roles"
}

// GormAccessController implements factoring.AccessController on a role
// grant table
type GormAccessController struct {
	db *gorm.DB
}

// NewGormAccessController creates a new GormAccessController
func NewGormAccessController(db *gorm.DB) *GormAccessController {
	return &GormAccessController{db: db}
}

// IsAllowed reports whether the actor holds the role the operation requires
func (c *GormAccessController) IsAllowed(ctx context.Context, actor uuid.UUID, op factoring.Operation) (bool, error) {
	role, ok := operationRoles[op]
	if !ok {
		return false, nil
	}
	var count int64
	if err := conn(ctx, c.db).
		Model(&ActorRole{}).
		Where("actor = ? AND role = ?", actor, role).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Grant gives an actor a role; granting an already-held role is a no-op
func (c *GormAccessController) Grant(ctx context.Context, actor uuid.UUID, role string) error {
	return conn(ctx, c.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ActorRole{Actor: actor, Role: role, CreatedAt: time.Now()}).Error
}

// Revoke removes a role from an actor
func (c *GormAccessController) Revoke(ctx context.Context, actor uuid.UUID, role string) error {
	return conn(ctx, c.db).
		Delete(&ActorRole{}, "actor = ? AND role = ?", actor, role).Error
}

// Ensure GormAccessController implements AccessController
var _ factoring.AccessController = (*GormAccessController)(nil)
