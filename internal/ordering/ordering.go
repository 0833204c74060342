// Package ordering maintains dense, gapless integer positions for entities
// sequenced within a partition (lessons within a module, modules within a
// course, questions within a quiz).
//
// Every reindex is a read-modify-write over the partition, so all operations
// must run inside a transaction and take FOR UPDATE locks on the partition
// rows first. Callers that already hold a transaction pass it in; the engine
// never opens its own.
package ordering

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursemart/internal/apierr"
)

// Entity is implemented by any sequenced model. Partition returns a query
// scoped to the rows the entity competes with for positions; WiderPartition
// optionally returns a superset scope whose numbering continues when the
// narrow partition is empty (lesson numbering across a course), or nil.
type Entity interface {
	OrderValue() int
	SetOrderValue(int)
	PartitionName() string
	Partition(tx *gorm.DB) *gorm.DB
	WiderPartition(tx *gorm.DB) *gorm.DB
}

func lockPartition(tx *gorm.DB, e Entity) error {
	// Row-range lock so two writers cannot interleave their shifts. SQLite
	// has no row locks (writes serialize on the file), so the clause is
	// postgres-only.
	scope := e.Partition(tx)
	if tx.Dialector.Name() == "postgres" {
		scope = scope.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ids []string
	return scope.Pluck("id", &ids).Error
}

func maxOrder(scope *gorm.DB) (int, error) {
	var max *int
	if err := scope.Select(`MAX("order")`).Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// NextOrder returns the position a newly appended entity gets: one past the
// partition max, continuing from the wider partition when the narrow one is
// empty, or 1.
func NextOrder(tx *gorm.DB, e Entity) (int, error) {
	max, err := maxOrder(e.Partition(tx))
	if err != nil {
		return 0, err
	}
	if max == 0 {
		if wider := e.WiderPartition(tx); wider != nil {
			wmax, err := maxOrder(wider)
			if err != nil {
				return 0, err
			}
			if wmax > 0 {
				return wmax + 1, nil
			}
		}
	}
	return max + 1, nil
}

// Insert assigns or validates the entity's order and creates the row. An
// unset order (0) appends; an explicit order must be at most one past the
// current max and shifts the tail up before the row is created.
func Insert(tx *gorm.DB, e Entity) error {
	if err := lockPartition(tx, e); err != nil {
		return err
	}
	next, err := NextOrder(tx, e)
	if err != nil {
		return err
	}
	switch {
	case e.OrderValue() == 0:
		e.SetOrderValue(next)
	case e.OrderValue() > next:
		return apierr.ValidationError{
			"order": fmt.Sprintf("The order can not be greater than last order of the %s.", e.PartitionName()),
		}
	default:
		if err := shift(e.Partition(tx), `"order" >= ?`, e.OrderValue(), +1); err != nil {
			return err
		}
	}
	return tx.Create(e).Error
}

// Move repositions an existing row to newOrder, keeping {1..N} contiguous.
func Move(tx *gorm.DB, e Entity, newOrder int) error {
	if err := lockPartition(tx, e); err != nil {
		return err
	}
	old := e.OrderValue()
	if newOrder == old {
		return nil
	}
	max, err := maxOrder(e.Partition(tx))
	if err != nil {
		return err
	}
	if newOrder < 1 || newOrder > max {
		return apierr.ValidationError{
			"order": fmt.Sprintf("The order can not be greater than last order of the %s.", e.PartitionName()),
		}
	}
	if newOrder > old {
		// old < order <= new slides down one
		if err := e.Partition(tx).
			Where(`"order" > ? AND "order" <= ?`, old, newOrder).
			Update("order", gorm.Expr(`"order" - 1`)).Error; err != nil {
			return err
		}
	} else {
		// new <= order < old slides up one
		if err := e.Partition(tx).
			Where(`"order" >= ? AND "order" < ?`, newOrder, old).
			Update("order", gorm.Expr(`"order" + 1`)).Error; err != nil {
			return err
		}
	}
	e.SetOrderValue(newOrder)
	return tx.Model(e).Update("order", newOrder).Error
}

// Remove soft-deletes the row and closes the gap it leaves.
func Remove(tx *gorm.DB, e Entity) error {
	if err := lockPartition(tx, e); err != nil {
		return err
	}
	old := e.OrderValue()
	if err := tx.Delete(e).Error; err != nil {
		return err
	}
	return shift(e.Partition(tx), `"order" > ?`, old, -1)
}

func shift(scope *gorm.DB, cond string, arg int, delta int) error {
	return scope.Where(cond, arg).
		Update("order", gorm.Expr(fmt.Sprintf(`"order" + %d`, delta))).Error
}
