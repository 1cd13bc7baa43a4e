package gormprobe

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/goforj/gormprobe/entity"
)

// SeedChildAge is the age every seeded child starts with.
const SeedChildAge = 15

// ParentName returns the seeded name for parent p.
func ParentName(p int) string {
	return fmt.Sprintf("Parent_%d", p)
}

// ChildName returns the seeded name for parent p's i-th child.
func ChildName(p, i int) string {
	return fmt.Sprintf("Child_%d_%d", p, i)
}

// NewChild builds an unsaved child in the seeded shape.
func NewChild(childID, parentID int, name string) *entity.Child {
	return &entity.Child{
		ChildID:  childID,
		Name:     name,
		Age:      SeedChildAge,
		ParentID: parentID,
	}
}

// SeedFamilies inserts numParents parents with childrenPerParent children
// each. Ids are dense, deterministic and start at 1, because the ORM treats
// zero-valued keys as unset: parent p is id p, its i-th child is id
// (p-1)*childrenPerParent+i. Returns the parent ids in insertion order.
func SeedFamilies(db *gorm.DB, numParents, childrenPerParent int) ([]int, error) {
	ids := make([]int, 0, numParents)
	for p := 1; p <= numParents; p++ {
		parent := &entity.Parent{
			ParentID: p,
			Name:     ParentName(p),
		}
		if err := db.Create(parent).Error; err != nil {
			return nil, fmt.Errorf("seed parent %d: %w", p, err)
		}
		for i := 1; i <= childrenPerParent; i++ {
			child := NewChild((p-1)*childrenPerParent+i, p, ChildName(p, i))
			if err := db.Create(child).Error; err != nil {
				return nil, fmt.Errorf("seed child %d_%d: %w", p, i, err)
			}
		}
		ids = append(ids, p)
	}
	return ids, nil
}

// SeedAccounts inserts n accounts with ids 1..n and a starting balance.
func SeedAccounts(db *gorm.DB, n int, balance int64) error {
	for i := 1; i <= n; i++ {
		acct := &entity.Account{
			ID:      i,
			Owner:   fmt.Sprintf("Owner_%d", i),
			Balance: balance,
		}
		if err := db.Create(acct).Error; err != nil {
			return fmt.Errorf("seed account %d: %w", i, err)
		}
	}
	return nil
}
