// Package crud is the shared persistence base for every audited entity.
//
// # Usage
//
//	genres := crud.New[entities.Genre](db)
//	g := &entities.Genre{Name: "Essay"}
//	err := genres.Insert(ctx, g, entities.Actor(adminID))
//
// All writes go through Commit, which runs the statement in a transaction
// and rolls back on any error. Nothing is retried.
package crud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookclub/internal/entities"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrCommit   = errors.New("commit failed")
)

// Record ties a model type to its pointer, which must carry the audit mixin.
type Record[T any] interface {
	*T
	entities.Audited
}

// Cond is a single WHERE fragment.
type Cond struct {
	Query string
	Args  []interface{}
}

func Eq(column string, value interface{}) Cond {
	return Cond{Query: column + " = ?", Args: []interface{}{value}}
}

func In(column string, values interface{}) Cond {
	return Cond{Query: column + " IN ?", Args: []interface{}{values}}
}

func NotDisabled() Cond {
	return Eq("disabled", false)
}

func Where(query string, args ...interface{}) Cond {
	return Cond{Query: query, Args: args}
}

// Query describes a listing.
type Query struct {
	Conds        []Cond
	OrderBy      string // column name, defaults to id
	Desc         bool
	Limit        int
	PendingFirst bool
	Preloads     []string
}

// Repository implements find/list/insert/update/delete for one model.
type Repository[T any, P Record[T]] struct {
	db  *gorm.DB
	now func() time.Time
}

func New[T any, P Record[T]](db *gorm.DB) *Repository[T, P] {
	return &Repository[T, P]{db: db, now: time.Now}
}

// DB returns the underlying handle for repositories that need custom queries.
func (r *Repository[T, P]) DB() *gorm.DB {
	return r.db
}

// WithTx returns a copy of the repository bound to tx, so its writes join
// the caller's transaction.
func (r *Repository[T, P]) WithTx(tx *gorm.DB) *Repository[T, P] {
	return &Repository[T, P]{db: tx, now: r.now}
}

// Commit runs fn in a transaction. Any error rolls the transaction back and
// is returned wrapped in ErrCommit.
func Commit(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if err := db.WithContext(ctx).Transaction(fn); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}
	return nil
}

func applyConds(tx *gorm.DB, conds []Cond) *gorm.DB {
	for _, c := range conds {
		tx = tx.Where(c.Query, c.Args...)
	}
	return tx
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *Repository[T, P]) Find(ctx context.Context, id uint, preloads ...string) (P, error) {
	tx := r.db.WithContext(ctx)
	for _, p := range preloads {
		tx = tx.Preload(p)
	}
	record := P(new(T))
	if err := tx.First(record, id).Error; err != nil {
		return nil, notFound(err)
	}
	return record, nil
}

func (r *Repository[T, P]) FindBy(ctx context.Context, conds ...Cond) (P, error) {
	record := P(new(T))
	if err := applyConds(r.db.WithContext(ctx), conds).First(record).Error; err != nil {
		return nil, notFound(err)
	}
	return record, nil
}

// Exists reports whether any row matches conds.
func (r *Repository[T, P]) Exists(ctx context.Context, conds ...Cond) (bool, error) {
	n, err := r.Count(ctx, conds...)
	return n > 0, err
}

func (r *Repository[T, P]) Count(ctx context.Context, conds ...Cond) (int64, error) {
	var n int64
	err := applyConds(r.db.WithContext(ctx).Model(P(new(T))), conds).Count(&n).Error
	return n, err
}

func (r *Repository[T, P]) List(ctx context.Context, q Query) ([]T, error) {
	tx := applyConds(r.db.WithContext(ctx), q.Conds)
	for _, p := range q.Preloads {
		tx = tx.Preload(p)
	}

	if q.PendingFirst {
		if po, ok := any(P(new(T))).(entities.PendingOrderer); ok {
			tx = tx.Order(po.PendingFirstExpr())
		}
	}
	column := q.OrderBy
	if column == "" {
		column = "id"
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: q.Desc})

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	out := []T{}
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CreatedBetween lists rows with from <= created_at < to, newest first.
func (r *Repository[T, P]) CreatedBetween(ctx context.Context, from, to time.Time, conds ...Cond) ([]T, error) {
	all := append(append([]Cond{}, conds...), Where("created_at >= ? AND created_at < ?", from, to))
	return r.List(ctx, Query{
		Conds:   all,
		OrderBy: "created_at",
		Desc:    true,
	})
}

func (r *Repository[T, P]) Insert(ctx context.Context, record P, actor *uint) error {
	record.AuditFields().MarkCreated(actor)
	return Commit(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
}

// Update applies column changes and refreshes record from the database.
func (r *Repository[T, P]) Update(ctx context.Context, record P, changes map[string]interface{}, actor *uint) error {
	record.AuditFields().MarkModified(actor)
	values := make(map[string]interface{}, len(changes)+1)
	for k, v := range changes {
		values[k] = v
	}
	values["modified_by"] = actor

	return Commit(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Model(record).Updates(values).Error; err != nil {
			return err
		}
		return tx.First(record).Error
	})
}

// Save persists every field of record, associations excluded.
func (r *Repository[T, P]) Save(ctx context.Context, record P, actor *uint) error {
	record.AuditFields().MarkModified(actor)
	return Commit(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Save(record).Error
	})
}

// Delete removes record together with its owned associations.
func (r *Repository[T, P]) Delete(ctx context.Context, record P) error {
	return Commit(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Select(clause.Associations).Delete(record).Error
	})
}

func (r *Repository[T, P]) Disable(ctx context.Context, record P, actor *uint) error {
	audit := record.AuditFields()
	audit.MarkDisabled(actor, r.now())
	return Commit(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Model(record).Updates(map[string]interface{}{
			"disabled":    true,
			"disabled_at": audit.DisabledAt,
			"disabled_by": actor,
			"modified_by": actor,
		}).Error
	})
}

func (r *Repository[T, P]) Enable(ctx context.Context, record P, actor *uint) error {
	audit := record.AuditFields()
	audit.MarkEnabled()
	audit.MarkModified(actor)
	return Commit(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Model(record).Updates(map[string]interface{}{
			"disabled":    false,
			"disabled_at": nil,
			"disabled_by": nil,
			"modified_by": actor,
		}).Error
	})
}

// WeeklyReport is the shape of the "last seven days" KPI endpoints.
type WeeklyReport[T any] struct {
	TotalPastWeek int64 `json:"total_past_week"`
	ThisWeek      []T   `json:"this_week"`
}

// LastSevenDays lists enabled rows created in the past week and counts the
// ones created the week before.
func (r *Repository[T, P]) LastSevenDays(ctx context.Context, conds ...Cond) (*WeeklyReport[T], error) {
	now := r.now()
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	base := append([]Cond{NotDisabled()}, conds...)

	thisWeek, err := r.CreatedBetween(ctx, weekAgo, now.Add(time.Second), base...)
	if err != nil {
		return nil, err
	}
	past, err := r.Count(ctx, append(append([]Cond{}, base...), Where("created_at >= ? AND created_at < ?", twoWeeksAgo, weekAgo))...)
	if err != nil {
		return nil, err
	}
	return &WeeklyReport[T]{TotalPastWeek: past, ThisWeek: thisWeek}, nil
}
