// Package entity defines the persistent model shared by the probe suites: a
// parent/child family tree with one eagerly and one lazily loaded child
// collection, a UUID-keyed entity for identifier-assignment checks, and a
// version-guarded account for optimistic locking.
package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/plugin/optimisticlock"
)

// Parent is the owning side of the family tree. Primary keys are assigned by
// the caller, never generated, so suites can reason about exact ids.
type Parent struct {
	ParentID int    `gorm:"column:parent_id;primaryKey;autoIncrement:false"`
	Name     string `gorm:"column:name"`
	Gender   Gender `gorm:"column:gender;type:varchar(1)"`

	// ChildrenEager is populated up front by the repository read helpers,
	// ordered by child id. ChildrenLazy is populated only by an explicit
	// association fetch. Both map onto the same child rows.
	ChildrenEager []*Child `gorm:"foreignKey:ParentID"`
	ChildrenLazy  []*Child `gorm:"foreignKey:ParentID"`
}

func (Parent) TableName() string { return "parent" }

// Child belongs to exactly one parent.
type Child struct {
	ChildID  int     `gorm:"column:child_id;primaryKey;autoIncrement:false"`
	Name     string  `gorm:"column:name"`
	Age      int     `gorm:"column:age"`
	ParentID int     `gorm:"column:parent_id;index"`
	Parent   *Parent `gorm:"foreignKey:ParentID"`
}

func (Child) TableName() string { return "child" }

// TestEntity carries an externally assignable UUID key.
type TestEntity struct {
	ID   uuid.UUID `gorm:"column:id;primaryKey;type:varchar(36)"`
	Name string    `gorm:"column:name"`
}

func (TestEntity) TableName() string { return "test_entity" }

// BeforeCreate fills the key only when it is unset, so a caller-assigned
// identifier always wins.
func (e *TestEntity) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Account is the optimistic-locking subject. The Version field type makes
// updates carry a version guard and bump it on success.
type Account struct {
	ID      int                    `gorm:"column:id;primaryKey;autoIncrement:false"`
	Owner   string                 `gorm:"column:owner"`
	Balance int64                  `gorm:"column:balance"`
	Version optimisticlock.Version `gorm:"column:version"`
}

func (Account) TableName() string { return "account" }

// All returns the model set in migration order.
func All() []any {
	return []any{&Parent{}, &Child{}, &TestEntity{}, &Account{}}
}
