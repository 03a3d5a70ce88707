package repositories

import (
	"errors"

	"github.com/tanvir-hossain-dev/opencircle/backend/internal/models"
	"github.com/tanvir-hossain-dev/opencircle/backend/pkg/apperrors"
	"gorm.io/gorm"
)

// RelationRepository defines data access for relation records (likes,
// bookmarks, follows, blocks).
type RelationRepository interface {
	// CreateRelation inserts a relation record. A duplicate-key violation is
	// reported as an apperrors KindConflict error, never as a generic failure.
	CreateRelation(rel *models.Relation) error

	// DeleteRelation removes the record for the tuple; returns true when a
	// row was actually deleted.
	DeleteRelation(subjectID uint, objectID string, relType models.RelationType) (bool, error)

	Exists(subjectID uint, objectID string, relType models.RelationType) (bool, error)

	// CountByObject counts relations pointing at an object; this is the
	// authoritative source for denormalized counters.
	CountByObject(objectID string, relType models.RelationType) (int64, error)
	CountBySubject(subjectID uint, relType models.RelationType) (int64, error)

	ListObjectIDs(subjectID uint, relType models.RelationType) ([]string, error)
	ListSubjectIDs(objectID string, relType models.RelationType) ([]uint, error)
}

// PostgresRelationRepository implements RelationRepository for PostgreSQL
type PostgresRelationRepository struct {
	db *gorm.DB
}

// NewPostgresRelationRepository creates a new PostgresRelationRepository
func NewPostgresRelationRepository(db *gorm.DB) *PostgresRelationRepository {
	return &PostgresRelationRepository{db: db}
}

func (r *PostgresRelationRepository) CreateRelation(rel *models.Relation) error {
	if err := r.db.Create(rel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflict("relation already exists", 0)
		}
		return err
	}
	return nil
}

func (r *PostgresRelationRepository) DeleteRelation(subjectID uint, objectID string, relType models.RelationType) (bool, error) {
	res := r.db.Where("subject_id = ? AND object_id = ? AND relation_type = ?", subjectID, objectID, relType).
		Delete(&models.Relation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresRelationRepository) Exists(subjectID uint, objectID string, relType models.RelationType) (bool, error) {
	var count int64
	err := r.db.Model(&models.Relation{}).
		Where("subject_id = ? AND object_id = ? AND relation_type = ?", subjectID, objectID, relType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRelationRepository) CountByObject(objectID string, relType models.RelationType) (int64, error) {
	var count int64
	err := r.db.Model(&models.Relation{}).
		Where("object_id = ? AND relation_type = ?", objectID, relType).
		Count(&count).Error
	return count, err
}

func (r *PostgresRelationRepository) CountBySubject(subjectID uint, relType models.RelationType) (int64, error) {
	var count int64
	err := r.db.Model(&models.Relation{}).
		Where("subject_id = ? AND relation_type = ?", subjectID, relType).
		Count(&count).Error
	return count, err
}

func (r *PostgresRelationRepository) ListObjectIDs(subjectID uint, relType models.RelationType) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.Relation{}).
		Where("subject_id = ? AND relation_type = ?", subjectID, relType).
		Order("created_at DESC").
		Pluck("object_id", &ids).Error
	return ids, err
}

func (r *PostgresRelationRepository) ListSubjectIDs(objectID string, relType models.RelationType) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Relation{}).
		Where("object_id = ? AND relation_type = ?", objectID, relType).
		Order("created_at DESC").
		Pluck("subject_id", &ids).Error
	return ids, err
}
