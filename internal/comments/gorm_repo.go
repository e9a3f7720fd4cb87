package comments

import (
	"context"
	"errors"

	"commentd/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository implements Repository on top of PostgreSQL via gorm.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Attachments").
		First(&comment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *GormRepository) ListRoots(ctx context.Context, q ListQuery) ([]models.Comment, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Comment{}).Where("comments.parent_id IS NULL")

	needsJoin := q.Username != "" || q.Email != "" || q.Sort == SortUsername || q.Sort == SortEmail
	if needsJoin {
		base = base.Joins("JOIN users ON users.id = comments.author_id")
	}
	if q.Text != "" {
		base = base.Where("comments.text LIKE ?", "%"+q.Text+"%")
	}
	if q.Username != "" {
		base = base.Where("users.username LIKE ?", "%"+q.Username+"%")
	}
	if q.Email != "" {
		base = base.Where("users.email LIKE ?", "%"+q.Email+"%")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var column string
	switch q.Sort {
	case SortUsername:
		column = "users.username"
	case SortEmail:
		column = "users.email"
	default:
		column = "comments.created_at"
	}

	var roots []models.Comment
	err := base.Session(&gorm.Session{}).
		Order(column + " " + q.Order).
		Limit(q.Limit).
		Offset((q.Page - 1) * q.Limit).
		Preload("Author").
		Preload("Attachments").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Replies.Author").
		Preload("Replies.Attachments").
		Find(&roots).Error
	if err != nil {
		return nil, 0, err
	}
	return roots, total, nil
}

func (r *GormRepository) Create(ctx context.Context, comment *models.Comment, attachments []models.Attachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The parent must resolve at transaction time; a reply is only ever
		// created after its parent exists, which also rules out cycles.
		if comment.ParentID != nil {
			var n int64
			if err := tx.Model(&models.Comment{}).Where("id = ?", *comment.ParentID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrParentNotFound
			}
		}

		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return err
		}

		if len(attachments) > 0 {
			for i := range attachments {
				attachments[i].CommentID = comment.ID
			}
			if err := tx.Create(&attachments).Error; err != nil {
				return err
			}
			comment.Attachments = attachments
		}
		return nil
	})
}

func (r *GormRepository) Update(ctx context.Context, comment *models.Comment, attachments []models.Attachment, updateText, replace bool) ([]string, error) {
	var removed []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if updateText {
			if err := tx.Model(&models.Comment{}).Where("id = ?", comment.ID).Update("text", comment.Text).Error; err != nil {
				return err
			}
		}

		if replace {
			if err := tx.Model(&models.Attachment{}).Where("comment_id = ?", comment.ID).Pluck("storage_path", &removed).Error; err != nil {
				return err
			}
			if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.Attachment{}).Error; err != nil {
				return err
			}
			if len(attachments) > 0 {
				for i := range attachments {
					attachments[i].CommentID = comment.ID
				}
				if err := tx.Create(&attachments).Error; err != nil {
					return err
				}
			}
			comment.Attachments = attachments
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *GormRepository) DeleteTree(ctx context.Context, id uuid.UUID) ([]string, error) {
	var removed []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Walk the adjacency relation level by level instead of following
		// pointers; the tree is acyclic by construction.
		ids := []uuid.UUID{id}
		frontier := ids
		for len(frontier) > 0 {
			var children []uuid.UUID
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}

		if err := tx.Model(&models.Attachment{}).Where("comment_id IN ?", ids).Pluck("storage_path", &removed).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.Attachment{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
