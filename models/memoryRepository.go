package models

import (
	"context"
	"sync"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
)

type memoryEdge struct {
	fromType   EntityType
	fromId     int
	relType    RelationshipType
	toType     EntityType
	toId       int
	properties map[string]interface{}
}

// MemoryRepository is a map-backed EntityRepository with the same
// semantics as the gorm one; it backs DB-free tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	entities map[EntityType]map[int]Entity
	edges    []memoryEdge
	nextId   int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entities: make(map[EntityType]map[int]Entity),
		nextId:   1,
	}
}

func (r *MemoryRepository) Get(ctx context.Context, entityType EntityType, id int) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byId, ok := r.entities[entityType]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	entity, ok := byId[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return entity, nil
}

func (r *MemoryRepository) Traverse(ctx context.Context, from Entity, relType RelationshipType, direction TraverseDirection) ([]Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []Entity
	for _, edge := range r.edges {
		if edge.relType != relType {
			continue
		}
		var farType EntityType
		var farId int
		if direction == DirectionIncoming {
			if edge.toType != from.EntityType() || edge.toId != from.EntityID() {
				continue
			}
			farType, farId = edge.fromType, edge.fromId
		} else {
			if edge.fromType != from.EntityType() || edge.fromId != from.EntityID() {
				continue
			}
			farType, farId = edge.toType, edge.toId
		}
		entity, ok := r.entities[farType][farId]
		if !ok {
			return nil, utils.ErrorRecordNotFound
		}
		results = append(results, entity)
	}
	return results, nil
}

// Scan applies the same result cap as the gorm repository: window-matching
// rows count against the cap before the predicate filters them.
func (r *MemoryRepository) Scan(ctx context.Context, entityType EntityType, predicate func(Entity) bool, window ScanWindow) ([]Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	maxRows := config.ScanResultLimit()
	matched := 0
	var results []Entity
	for _, entity := range r.entities[entityType] {
		if ctx.Err() != nil {
			return nil, utils.ErrorScanTimeout
		}
		if !inWindow(entity, window) {
			continue
		}
		matched++
		if matched > maxRows {
			return nil, utils.ErrorScanResultCap
		}
		if predicate == nil || predicate(entity) {
			results = append(results, entity)
		}
	}
	return results, nil
}

func inWindow(entity Entity, window ScanWindow) bool {
	var anchor time.Time
	switch e := entity.(type) {
	case *Application:
		anchor = e.ApplicationDate
	case *Property:
		if e.AppraisalDate == nil {
			return window.From.IsZero()
		}
		anchor = *e.AppraisalDate
	case *Document:
		anchor = e.ReceivedDate
	case *Person:
		anchor = e.CreatedAt
	default:
		return true
	}
	if !window.From.IsZero() && anchor.Before(window.From) {
		return false
	}
	if !window.To.IsZero() && anchor.After(window.To) {
		return false
	}
	return true
}

func (r *MemoryRepository) Upsert(ctx context.Context, entity Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byId, ok := r.entities[entity.EntityType()]
	if !ok {
		byId = make(map[int]Entity)
		r.entities[entity.EntityType()] = byId
	}
	id := entity.EntityID()
	if id == 0 {
		id = r.nextId
		r.nextId++
		assignMemoryId(entity, id)
	} else if id >= r.nextId {
		r.nextId = id + 1
	}
	byId[id] = entity
	return nil
}

func assignMemoryId(entity Entity, id int) {
	switch e := entity.(type) {
	case *Person:
		e.ID = id
	case *Application:
		e.ID = id
	case *Property:
		e.ID = id
	case *Document:
		e.ID = id
	case *Company:
		e.ID = id
	case *Location:
		e.ID = id
	case *LoanProgram:
		e.ID = id
	case *BusinessRule:
		e.ID = id
	}
}

func (r *MemoryRepository) Link(ctx context.Context, from Entity, relType RelationshipType, to Entity, properties map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, edge := range r.edges {
		if edge.fromType == from.EntityType() && edge.fromId == from.EntityID() &&
			edge.relType == relType &&
			edge.toType == to.EntityType() && edge.toId == to.EntityID() {
			r.edges[i].properties = properties
			return nil
		}
	}
	r.edges = append(r.edges, memoryEdge{
		fromType:   from.EntityType(),
		fromId:     from.EntityID(),
		relType:    relType,
		toType:     to.EntityType(),
		toId:       to.EntityID(),
		properties: properties,
	})
	return nil
}

// LinkProperties exposes edge metadata for assertions.
func (r *MemoryRepository) LinkProperties(from Entity, relType RelationshipType, to Entity) (map[string]interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, edge := range r.edges {
		if edge.fromType == from.EntityType() && edge.fromId == from.EntityID() &&
			edge.relType == relType &&
			edge.toType == to.EntityType() && edge.toId == to.EntityID() {
			return edge.properties, true
		}
	}
	return nil, false
}
