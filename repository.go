package gormprobe

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/goforj/gormprobe/entity"
)

// Repository provides the access policies the probe suites share: eager
// reads are ordered by child id, lazy reads load on demand, writes never
// cascade into associations. Bind it to a transaction handle to run the
// same policies inside that transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the policies to a session or transaction handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying handle.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

func childOrder(tx *gorm.DB) *gorm.DB {
	return tx.Order("child_id")
}

// FindParent loads one parent with its eager children ordered by child id.
func (r *Repository) FindParent(ctx context.Context, parentID int) (*entity.Parent, error) {
	var p entity.Parent
	err := r.db.WithContext(ctx).
		Preload("ChildrenEager", childOrder).
		First(&p, "parent_id = ?", parentID).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListParents loads every parent ordered by id, eager children included.
func (r *Repository) ListParents(ctx context.Context) ([]*entity.Parent, error) {
	var ps []*entity.Parent
	err := r.db.WithContext(ctx).
		Preload("ChildrenEager", childOrder).
		Order("parent_id").
		Find(&ps).Error
	return ps, err
}

// LazyChildren populates p.ChildrenLazy on demand and returns it. The eager
// collection is left untouched.
func (r *Repository) LazyChildren(ctx context.Context, p *entity.Parent) ([]*entity.Child, error) {
	err := r.db.WithContext(ctx).Model(p).Association("ChildrenLazy").Find(&p.ChildrenLazy)
	if err != nil {
		return nil, err
	}
	return p.ChildrenLazy, nil
}

// Refresh re-reads p from current rows. The caller's struct is overwritten
// in place and its eager collection rebuilt with fresh values; pointers into
// the old collection keep the old state.
func (r *Repository) Refresh(ctx context.Context, p *entity.Parent) error {
	p.ChildrenEager = nil
	p.ChildrenLazy = nil
	return r.db.WithContext(ctx).
		Preload("ChildrenEager", childOrder).
		First(p, "parent_id = ?", p.ParentID).Error
}

// CreateParent inserts p without touching its collections.
func (r *Repository) CreateParent(ctx context.Context, p *entity.Parent) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// CreateChild inserts c without touching its parent association.
func (r *Repository) CreateChild(ctx context.Context, c *entity.Child) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

// MergeParent writes p's current state whether or not the row exists.
func (r *Repository) MergeParent(ctx context.Context, p *entity.Parent) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(p).Error
}

// MergeChild writes c's current state whether or not the row exists.
func (r *Repository) MergeChild(ctx context.Context, c *entity.Child) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(c).Error
}

// DeleteChildren removes the given child rows immediately.
func (r *Repository) DeleteChildren(ctx context.Context, childIDs ...int) error {
	if len(childIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&entity.Child{}, "child_id IN ?", childIDs).Error
}

// LockParent loads a parent under FOR UPDATE. The lock is held until the
// bound transaction ends.
func (r *Repository) LockParent(ctx context.Context, parentID int) (*entity.Parent, error) {
	var p entity.Parent
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "parent_id = ?", parentID).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// TryLockParent is LockParent with NOWAIT: it fails fast when another
// transaction holds the row.
func (r *Repository) TryLockParent(ctx context.Context, parentID int) (*entity.Parent, error) {
	var p entity.Parent
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&p, "parent_id = ?", parentID).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SkipLockedParents lists the parents whose rows are not currently locked.
func (r *Repository) SkipLockedParents(ctx context.Context) ([]*entity.Parent, error) {
	var ps []*entity.Parent
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Order("parent_id").
		Find(&ps).Error
	return ps, err
}

// RefreshLocked re-reads p's row under FOR UPDATE, keeping it locked for the
// rest of the transaction. Collections are cleared, not reloaded; fetch them
// lazily afterwards.
func (r *Repository) RefreshLocked(ctx context.Context, p *entity.Parent) error {
	p.ChildrenEager = nil
	p.ChildrenLazy = nil
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(p, "parent_id = ?", p.ParentID).Error
}
