package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lendfocus/mortgage_backend/config"
	"gorm.io/gorm"
)

// Relationship is one typed, directed edge between two entities.
// Properties is free-form edge metadata (is_primary, score, rule version).
type Relationship struct {
	ID               int              `gorm:"primary_key" json:"id"`
	FromType         EntityType       `gorm:"size:30;index:idx_rel_from,priority:1;not null" json:"from_type"`
	FromId           int              `gorm:"index:idx_rel_from,priority:2;not null" json:"from_id"`
	RelationshipType RelationshipType `gorm:"size:30;index:idx_rel_from,priority:3;index:idx_rel_to,priority:3;not null" json:"relationship_type"`
	ToType           EntityType       `gorm:"size:30;index:idx_rel_to,priority:1;not null" json:"to_type"`
	ToId             int              `gorm:"index:idx_rel_to,priority:2;not null" json:"to_id"`
	Properties       []byte           `gorm:"type:json" json:"properties"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// PropertiesMap decodes the edge metadata; nil-safe.
func (r *Relationship) PropertiesMap() map[string]interface{} {
	if len(r.Properties) == 0 {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(r.Properties, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}

// UpsertLink creates or refreshes a single edge, keyed by endpoints + type.
func UpsertLink(tx *gorm.DB, fromType EntityType, fromId int, relType RelationshipType, toType EntityType, toId int, properties map[string]interface{}) error {
	var propsJSON []byte
	if properties != nil {
		b, err := json.Marshal(properties)
		if err != nil {
			return err
		}
		propsJSON = b
	}

	var existing []*Relationship
	err := tx.Where("from_type = ? AND from_id = ? AND relationship_type = ? AND to_type = ? AND to_id = ?",
		fromType, fromId, relType, toType, toId).Limit(1).Find(&existing).Error
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return tx.Model(&Relationship{}).Where("id = ?", existing[0].ID).
			Update("properties", propsJSON).Error
	}

	edge := Relationship{
		FromType:         fromType,
		FromId:           fromId,
		RelationshipType: relType,
		ToType:           toType,
		ToId:             toId,
		Properties:       propsJSON,
	}
	return tx.Create(&edge).Error
}

// ListLinks returns the outgoing or incoming edges of one entity for a type.
func ListLinks(ctx context.Context, entityType EntityType, entityId int, relType RelationshipType, direction TraverseDirection) ([]*Relationship, error) {
	db := config.GetDB()
	var edges []*Relationship
	dbCtx := db.WithContext(ctx)
	if direction == DirectionIncoming {
		dbCtx = dbCtx.Where("to_type = ? AND to_id = ? AND relationship_type = ?", entityType, entityId, relType)
	} else {
		dbCtx = dbCtx.Where("from_type = ? AND from_id = ? AND relationship_type = ?", entityType, entityId, relType)
	}
	err := dbCtx.Limit(config.ScanResultLimit()).Find(&edges).Error
	return edges, err
}
