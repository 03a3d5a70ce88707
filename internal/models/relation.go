package models

import "time"

// RelationType identifies the kind of social-graph edge a relation record
// represents.
type RelationType string

const (
	RelationLike     RelationType = "like"
	RelationBookmark RelationType = "bookmark"
	RelationFollow   RelationType = "follow"
	RelationBlock    RelationType = "block"
)

// Relation is a directed edge from a user (subject) to another user or a
// piece of content (object). The composite unique index guarantees at most
// one record per (subject, object, type) tuple; concurrent duplicate
// creations are resolved by the database, not by the application.
type Relation struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	SubjectID    uint         `json:"subject_id" gorm:"index;uniqueIndex:idx_subject_object_type"`
	ObjectID     string       `json:"object_id" gorm:"size:64;index;uniqueIndex:idx_subject_object_type"` // post ObjectID hex or decimal user ID
	RelationType RelationType `json:"relation_type" gorm:"size:20;uniqueIndex:idx_subject_object_type"`
	CreatedAt    time.Time    `json:"created_at"`
}
