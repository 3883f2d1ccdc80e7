package models

import (
	"context"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"gorm.io/gorm"
)

// Entity is anything the repository can store and traverse between.
type Entity interface {
	EntityType() EntityType
	EntityID() int
}

// ScanWindow bounds a filtered scan to an explicit time range. Scans with
// a zero window are refused by convention; every caller in the pipeline
// passes one (90/180/365 days).
type ScanWindow struct {
	From time.Time
	To   time.Time
}

// EntityRepository is the single store surface the engines write through:
// point lookup, edge traversal, windowed filtered scan, upsert, link.
// Scans are cancellable and time-boxed; Get on a missing id is a hard
// referential-integrity failure.
type EntityRepository interface {
	Get(ctx context.Context, entityType EntityType, id int) (Entity, error)
	Traverse(ctx context.Context, from Entity, relType RelationshipType, direction TraverseDirection) ([]Entity, error)
	Scan(ctx context.Context, entityType EntityType, predicate func(Entity) bool, window ScanWindow) ([]Entity, error)
	Upsert(ctx context.Context, entity Entity) error
	Link(ctx context.Context, from Entity, relType RelationshipType, to Entity, properties map[string]interface{}) error
}

// GormRepository backs the repository with MySQL through gorm. Predicate
// filtering runs in Go over window-bounded, capped result sets so scan
// cost stays bounded as the graph grows.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func DefaultRepository() *GormRepository {
	return &GormRepository{db: config.GetDB()}
}

func (r *GormRepository) handle() *gorm.DB {
	if r.db != nil {
		return r.db
	}
	return config.GetDB()
}

func (r *GormRepository) Get(ctx context.Context, entityType EntityType, id int) (Entity, error) {
	db := r.handle().WithContext(ctx)
	fetch := func(dest Entity) (Entity, error) {
		if err := db.First(dest, id).Error; err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		return dest, nil
	}
	switch entityType {
	case EntityTypePerson:
		return fetch(&Person{})
	case EntityTypeApplication:
		return fetch(&Application{})
	case EntityTypeProperty:
		return fetch(&Property{})
	case EntityTypeDocument:
		return fetch(&Document{})
	case EntityTypeCompany:
		return fetch(&Company{})
	case EntityTypeLocation:
		return fetch(&Location{})
	case EntityTypeLoanProgram:
		return fetch(&LoanProgram{})
	case EntityTypeBusinessRule:
		return fetch(&BusinessRule{})
	}
	return nil, utils.ErrorRecordNotFound
}

func (r *GormRepository) Traverse(ctx context.Context, from Entity, relType RelationshipType, direction TraverseDirection) ([]Entity, error) {
	db := r.handle().WithContext(ctx)
	var edges []*Relationship
	dbCtx := db.Limit(config.ScanResultLimit())
	if direction == DirectionIncoming {
		dbCtx = dbCtx.Where("to_type = ? AND to_id = ? AND relationship_type = ?", from.EntityType(), from.EntityID(), relType)
	} else {
		dbCtx = dbCtx.Where("from_type = ? AND from_id = ? AND relationship_type = ?", from.EntityType(), from.EntityID(), relType)
	}
	if err := dbCtx.Find(&edges).Error; err != nil {
		return nil, err
	}

	var results []Entity
	for _, edge := range edges {
		farType, farId := edge.ToType, edge.ToId
		if direction == DirectionIncoming {
			farType, farId = edge.FromType, edge.FromId
		}
		entity, err := r.Get(ctx, farType, farId)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, nil
}

// Scan fetches window-bounded rows of one entity type and filters them
// through the predicate. The scan runs under the configured budget and
// fails with ScanTimeout instead of blocking the pipeline; the row count
// is capped and overflow reported as ScanResultCap.
func (r *GormRepository) Scan(ctx context.Context, entityType EntityType, predicate func(Entity) bool, window ScanWindow) ([]Entity, error) {
	scanCtx, cancel := context.WithTimeout(ctx, config.ScanBudget())
	defer cancel()

	maxRows := config.ScanResultLimit()
	rows, err := r.scanRows(scanCtx, entityType, window, maxRows+1)
	if err != nil {
		if scanCtx.Err() == context.DeadlineExceeded {
			return nil, utils.ErrorScanTimeout
		}
		return nil, err
	}
	if len(rows) > maxRows {
		return nil, utils.ErrorScanResultCap
	}

	var results []Entity
	for _, row := range rows {
		if scanCtx.Err() != nil {
			return nil, utils.ErrorScanTimeout
		}
		if predicate == nil || predicate(row) {
			results = append(results, row)
		}
	}
	return results, nil
}

func (r *GormRepository) scanRows(ctx context.Context, entityType EntityType, window ScanWindow, limit int) ([]Entity, error) {
	db := r.handle().WithContext(ctx).Limit(limit)

	collect := func(find func(*gorm.DB) ([]Entity, error), column string) ([]Entity, error) {
		if !window.From.IsZero() {
			db = db.Where(column+" >= ?", window.From)
		}
		if !window.To.IsZero() {
			db = db.Where(column+" <= ?", window.To)
		}
		return find(db)
	}

	switch entityType {
	case EntityTypeApplication:
		return collect(func(db *gorm.DB) ([]Entity, error) {
			var rows []*Application
			if err := db.Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]Entity, len(rows))
			for i, row := range rows {
				out[i] = row
			}
			return out, nil
		}, "application_date")
	case EntityTypeProperty:
		return collect(func(db *gorm.DB) ([]Entity, error) {
			var rows []*Property
			if err := db.Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]Entity, len(rows))
			for i, row := range rows {
				out[i] = row
			}
			return out, nil
		}, "appraisal_date")
	case EntityTypePerson:
		return collect(func(db *gorm.DB) ([]Entity, error) {
			var rows []*Person
			if err := db.Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]Entity, len(rows))
			for i, row := range rows {
				out[i] = row
			}
			return out, nil
		}, "created_at")
	case EntityTypeDocument:
		return collect(func(db *gorm.DB) ([]Entity, error) {
			var rows []*Document
			if err := db.Find(&rows).Error; err != nil {
				return nil, err
			}
			out := make([]Entity, len(rows))
			for i, row := range rows {
				out[i] = row
			}
			return out, nil
		}, "received_date")
	}
	return nil, utils.ErrorRecordNotFound
}

func (r *GormRepository) Upsert(ctx context.Context, entity Entity) error {
	return r.handle().WithContext(ctx).Save(entity).Error
}

func (r *GormRepository) Link(ctx context.Context, from Entity, relType RelationshipType, to Entity, properties map[string]interface{}) error {
	return UpsertLink(r.handle().WithContext(ctx), from.EntityType(), from.EntityID(), relType, to.EntityType(), to.EntityID(), properties)
}
