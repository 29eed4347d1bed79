package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"github.com/google/uuid"
)

// Kind is the capability record that specializes MediaItemService for one media kind.
type Kind[E any] struct {
	MediaType model.MediaType
	// Resource names the kind in errors.
	Resource string
	Fields   query.Fields
	// FromCatalog maps an external catalog entry into an unsaved item.
	FromCatalog func(*model.CatalogMediaItem) *E
}

// MediaItemService implements the operations shared by every media kind.
type MediaItemService[E any, P model.ItemPtr[E]] struct {
	kind       Kind[E]
	items      registrystore.Collection[E]
	categories registrystore.Collection[model.Category]
	groups     registrystore.Collection[model.Group]
	platforms  registrystore.Collection[model.OwnPlatform]
	now        func() time.Time
}

func newMediaItemService[E any, P model.ItemPtr[E]](kind Kind[E], items registrystore.Collection[E], st registrystore.Store, now func() time.Time) *MediaItemService[E, P] {
	return &MediaItemService[E, P]{
		kind:       kind,
		items:      items,
		categories: st.Categories(),
		groups:     st.Groups(),
		platforms:  st.OwnPlatforms(),
		now:        now,
	}
}

// Kind returns the capability record of the service.
func (s *MediaItemService[E, P]) Kind() Kind[E] { return s.kind }

// Get returns the item, or nil when the user has no such item in the category.
func (s *MediaItemService[E, P]) Get(ctx context.Context, userID, categoryID, id string) (*E, error) {
	return s.items.FindOne(ctx, query.InCategory(userID, categoryID, query.Eq{Field: model.FieldID, Value: id}))
}

// List returns every item of a category in the kind's default order.
func (s *MediaItemService[E, P]) List(ctx context.Context, userID, categoryID string) ([]E, error) {
	return s.FilterAndOrder(ctx, userID, categoryID, nil, nil)
}

// FilterAndOrder returns the items of a category matching filter, sorted by sortBy.
func (s *MediaItemService[E, P]) FilterAndOrder(ctx context.Context, userID, categoryID string, filter *model.MediaItemFilter, sortBy []model.SortBy) ([]E, error) {
	order, err := query.OrderingFor(sortBy, s.kind.Fields)
	if err != nil {
		return nil, &registrystore.ValidationError{Field: "sortBy", Message: err.Error()}
	}
	return s.items.Find(ctx, query.FilterCondition(userID, categoryID, filter, s.kind.Fields), order)
}

// Search returns the user's items of every category matching term, narrowed by filter.
func (s *MediaItemService[E, P]) Search(ctx context.Context, userID, term string, filter *model.MediaItemFilter) ([]E, error) {
	if strings.TrimSpace(term) == "" {
		return nil, &registrystore.ValidationError{Field: "term", Message: "is required"}
	}
	order, err := query.OrderingFor(nil, s.kind.Fields)
	if err != nil {
		return nil, err
	}
	return s.items.Find(ctx, query.SearchCondition(userID, term, filter, s.kind.Fields), order)
}

// Save inserts an item without id or replaces the existing one. The category
// must be the user's and hold this kind. A group or own platform must be the
// user's and live in the same category.
func (s *MediaItemService[E, P]) Save(ctx context.Context, item *E) (*E, error) {
	base := P(item).Base()
	base.Name = strings.TrimSpace(base.Name)
	if base.Importance == "" {
		base.Importance = model.ImportanceNone
	}
	if base.CompletedOn == nil {
		base.CompletedOn = []time.Time{}
	}
	if base.Group == "" {
		base.OrderInGroup = 0
	}
	if err := validateStruct(item); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, base); err != nil {
		return nil, err
	}

	now := s.now()
	if base.ID == "" {
		base.ID = uuid.NewString()
		base.CreatedAt = time.Time{}
		base.Touch(now)
		if err := s.items.Insert(ctx, item); err != nil {
			return nil, err
		}
		return item, nil
	}

	existing, err := s.items.FindOne(ctx, query.ByID(base.Owner, base.ID))
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &registrystore.NotFoundError{Resource: s.kind.Resource, ID: base.ID}
	}
	base.CreatedAt = P(existing).Base().CreatedAt
	base.Touch(now)
	if err := s.items.Replace(ctx, base.ID, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MediaItemService[E, P]) checkReferences(ctx context.Context, base *model.MediaItem) error {
	var category *model.Category
	missingCategory := &registrystore.ValidationError{
		Field:   model.FieldCategory,
		Message: fmt.Sprintf("category %s does not exist", base.Category),
	}
	if err := Require(ctx, missingCategory, func(ctx context.Context) (*model.Category, error) {
		found, err := s.categories.FindOne(ctx, query.ByID(base.Owner, base.Category))
		category = found
		return found, err
	}); err != nil {
		return err
	}
	if category.MediaType != s.kind.MediaType {
		return &registrystore.ValidationError{
			Field:   model.FieldCategory,
			Message: fmt.Sprintf("category %s holds %s items, not %s", category.ID, category.MediaType, s.kind.MediaType),
		}
	}

	if base.Group != "" {
		missingGroup := &registrystore.ValidationError{
			Field:   model.FieldGroup,
			Message: fmt.Sprintf("group %s does not exist in category %s", base.Group, base.Category),
		}
		if err := Require(ctx, missingGroup, func(ctx context.Context) (*model.Group, error) {
			return s.groups.FindOne(ctx, query.InCategory(base.Owner, base.Category, query.Eq{Field: model.FieldID, Value: base.Group}))
		}); err != nil {
			return err
		}
	}
	if base.OwnPlatform != "" {
		missingPlatform := &registrystore.ValidationError{
			Field:   model.FieldOwnPlatform,
			Message: fmt.Sprintf("own platform %s does not exist in category %s", base.OwnPlatform, base.Category),
		}
		if err := Require(ctx, missingPlatform, func(ctx context.Context) (*model.OwnPlatform, error) {
			return s.platforms.FindOne(ctx, query.InCategory(base.Owner, base.Category, query.Eq{Field: model.FieldID, Value: base.OwnPlatform}))
		}); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes one item. It fails with *registrystore.NotFoundError when the
// user has no such item in the category.
func (s *MediaItemService[E, P]) Delete(ctx context.Context, userID, categoryID, id string) error {
	n, err := s.items.DeleteMany(ctx, query.InCategory(userID, categoryID, query.Eq{Field: model.FieldID, Value: id}))
	if err != nil {
		return err
	}
	if n == 0 {
		return &registrystore.NotFoundError{Resource: s.kind.Resource, ID: id}
	}
	return nil
}

// The methods below implement categoryContents for the container services.

func (s *MediaItemService[E, P]) countInCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	return s.items.Count(ctx, query.InCategory(userID, categoryID))
}

func (s *MediaItemService[E, P]) deleteInCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	return s.items.DeleteMany(ctx, query.InCategory(userID, categoryID))
}

func (s *MediaItemService[E, P]) countReferencing(ctx context.Context, userID, field, id string) (int64, error) {
	return s.items.Count(ctx, query.Owned(userID, query.Eq{Field: field, Value: id}))
}

func (s *MediaItemService[E, P]) detach(ctx context.Context, userID, field, id string) (int64, error) {
	fields := []string{field}
	if field == model.FieldGroup {
		fields = append(fields, model.FieldOrderInGroup)
	}
	return s.items.Unset(ctx, query.Owned(userID, query.Eq{Field: field, Value: id}), fields...)
}
