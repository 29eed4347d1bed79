package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"github.com/google/uuid"
)

// SaveOptions tunes a container save.
type SaveOptions struct {
	// AllowSameName skips the name uniqueness check.
	AllowSameName bool
}

// DeleteOptions tunes a container delete.
type DeleteOptions struct {
	// Force removes or detaches dependents instead of refusing the delete.
	Force bool
}

// categoryContents is implemented by the media item services so that the
// container services can inspect and clean up the items of a category.
type categoryContents interface {
	countInCategory(ctx context.Context, userID, categoryID string) (int64, error)
	deleteInCategory(ctx context.Context, userID, categoryID string) (int64, error)
	countReferencing(ctx context.Context, userID, field, id string) (int64, error)
	detach(ctx context.Context, userID, field, id string) (int64, error)
}

// CategoryService manages categories.
type CategoryService struct {
	categories registrystore.Collection[model.Category]
	groups     registrystore.Collection[model.Group]
	platforms  registrystore.Collection[model.OwnPlatform]
	contents   map[model.MediaType]categoryContents
	now        func() time.Time
}

var categoryOrder = query.Ordering{{Field: model.FieldName, Ascending: true}, {Field: model.FieldID, Ascending: true}}

// Get returns the category, or nil when the user has no such category.
func (s *CategoryService) Get(ctx context.Context, userID, id string) (*model.Category, error) {
	return s.categories.FindOne(ctx, query.ByID(userID, id))
}

// List returns the user's categories ordered by name.
func (s *CategoryService) List(ctx context.Context, userID string) ([]model.Category, error) {
	return s.categories.Find(ctx, query.Owned(userID), categoryOrder)
}

// Save inserts a category without id or replaces the existing one. Names are
// unique per user unless opts.AllowSameName is set. The media type cannot
// change while the category holds items.
func (s *CategoryService) Save(ctx context.Context, c *model.Category, opts SaveOptions) (*model.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := validateStruct(c); err != nil {
		return nil, err
	}
	if !opts.AllowSameName {
		if err := s.checkUniqueName(ctx, c); err != nil {
			return nil, err
		}
	}

	now := s.now()
	if c.ID == "" {
		c.ID = uuid.NewString()
		c.CreatedAt = time.Time{}
		c.Touch(now)
		if err := s.categories.Insert(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}

	existing, err := s.Get(ctx, c.Owner, c.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &registrystore.NotFoundError{Resource: "category", ID: c.ID}
	}
	if existing.MediaType != c.MediaType {
		n, err := s.itemCount(ctx, existing)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, &registrystore.ReferentialIntegrityError{
				Resource: "category",
				ID:       c.ID,
				Message:  fmt.Sprintf("cannot change media type from %s to %s while it holds %d items", existing.MediaType, c.MediaType, n),
			}
		}
	}
	c.CreatedAt = existing.CreatedAt
	c.Touch(now)
	if err := s.categories.Replace(ctx, c.ID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) checkUniqueName(ctx context.Context, c *model.Category) error {
	same, err := s.categories.Find(ctx, query.Owned(c.Owner, query.EqFold{Field: model.FieldName, Value: c.Name}), nil)
	if err != nil {
		return err
	}
	for _, other := range same {
		if other.ID != c.ID {
			return &registrystore.ConflictError{
				Message: fmt.Sprintf("a category named %q already exists", c.Name),
				Code:    registrystore.CodeUniquenessViolation,
				Details: map[string]interface{}{"field": model.FieldName, "existingId": other.ID},
			}
		}
	}
	return nil
}

func (s *CategoryService) itemCount(ctx context.Context, c *model.Category) (int64, error) {
	contents, ok := s.contents[c.MediaType]
	if !ok {
		return 0, nil
	}
	return contents.countInCategory(ctx, c.Owner, c.ID)
}

// Delete removes a category. A category that still holds items, groups or own
// platforms is only removed with opts.Force, which deletes those first.
func (s *CategoryService) Delete(ctx context.Context, userID, id string, opts DeleteOptions) error {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if c == nil {
		return &registrystore.NotFoundError{Resource: "category", ID: id}
	}

	items, err := s.itemCount(ctx, c)
	if err != nil {
		return err
	}
	groups, err := s.groups.Count(ctx, query.InCategory(userID, id))
	if err != nil {
		return err
	}
	platforms, err := s.platforms.Count(ctx, query.InCategory(userID, id))
	if err != nil {
		return err
	}
	if items+groups+platforms > 0 {
		if !opts.Force {
			return &registrystore.ReferentialIntegrityError{
				Resource: "category",
				ID:       id,
				Message:  fmt.Sprintf("still holds %d items, %d groups and %d own platforms", items, groups, platforms),
			}
		}
		if _, err := s.groups.DeleteMany(ctx, query.InCategory(userID, id)); err != nil {
			return err
		}
		if _, err := s.platforms.DeleteMany(ctx, query.InCategory(userID, id)); err != nil {
			return err
		}
		if contents, ok := s.contents[c.MediaType]; ok {
			if _, err := contents.deleteInCategory(ctx, userID, id); err != nil {
				return err
			}
		}
		log.Info("Force deleted category contents", "category", id, "items", items, "groups", groups, "ownPlatforms", platforms)
	}

	n, err := s.categories.DeleteMany(ctx, query.ByID(userID, id))
	if err != nil {
		return err
	}
	if n == 0 {
		return &registrystore.NotFoundError{Resource: "category", ID: id}
	}
	return nil
}
