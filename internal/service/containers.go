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

// ContainerService manages a record kind that lives inside a category and is
// referenced by media items (groups, own platforms).
type ContainerService[E any, P model.ScopedPtr[E]] struct {
	resource string
	// field is the media item field holding the reference.
	field      string
	docs       registrystore.Collection[E]
	categories registrystore.Collection[model.Category]
	contents   []categoryContents
	now        func() time.Time
}

// Get returns the record, or nil when the user has no such record in the category.
func (s *ContainerService[E, P]) Get(ctx context.Context, userID, categoryID, id string) (*E, error) {
	return s.docs.FindOne(ctx, query.InCategory(userID, categoryID, query.Eq{Field: model.FieldID, Value: id}))
}

// List returns the records of a category ordered by name.
func (s *ContainerService[E, P]) List(ctx context.Context, userID, categoryID string) ([]E, error) {
	return s.docs.Find(ctx, query.InCategory(userID, categoryID), categoryOrder)
}

// Save inserts a record without id or replaces the existing one. The category
// must be the user's. Names are unique per category unless opts.AllowSameName
// is set. A record cannot move to another category while items reference it.
func (s *ContainerService[E, P]) Save(ctx context.Context, doc *E, opts SaveOptions) (*E, error) {
	p := P(doc)
	p.SetName(strings.TrimSpace(p.GetName()))
	if err := validateStruct(doc); err != nil {
		return nil, err
	}
	owner, categoryID := p.GetOwner(), p.GetCategory()
	missingCategory := &registrystore.ValidationError{
		Field:   model.FieldCategory,
		Message: fmt.Sprintf("category %s does not exist", categoryID),
	}
	if err := Require(ctx, missingCategory, func(ctx context.Context) (*model.Category, error) {
		return s.categories.FindOne(ctx, query.ByID(owner, categoryID))
	}); err != nil {
		return nil, err
	}
	if !opts.AllowSameName {
		if err := s.checkUniqueName(ctx, p); err != nil {
			return nil, err
		}
	}

	now := s.now()
	if p.GetID() == "" {
		p.SetID(uuid.NewString())
		p.SetCreatedAt(time.Time{})
		p.Touch(now)
		if err := s.docs.Insert(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	existing, err := s.docs.FindOne(ctx, query.ByID(owner, p.GetID()))
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &registrystore.NotFoundError{Resource: s.resource, ID: p.GetID()}
	}
	if P(existing).GetCategory() != categoryID {
		n, err := s.referenceCount(ctx, owner, p.GetID())
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, &registrystore.ReferentialIntegrityError{
				Resource: s.resource,
				ID:       p.GetID(),
				Message:  fmt.Sprintf("cannot move to another category while %d items reference it", n),
			}
		}
	}
	p.SetCreatedAt(P(existing).GetCreatedAt())
	p.Touch(now)
	if err := s.docs.Replace(ctx, p.GetID(), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ContainerService[E, P]) checkUniqueName(ctx context.Context, p P) error {
	same, err := s.docs.Find(ctx, query.InCategory(p.GetOwner(), p.GetCategory(), query.EqFold{Field: model.FieldName, Value: p.GetName()}), nil)
	if err != nil {
		return err
	}
	for i := range same {
		other := P(&same[i])
		if other.GetID() != p.GetID() {
			return &registrystore.ConflictError{
				Message: fmt.Sprintf("a %s named %q already exists in category %s", s.resource, p.GetName(), p.GetCategory()),
				Code:    registrystore.CodeUniquenessViolation,
				Details: map[string]interface{}{"field": model.FieldName, "existingId": other.GetID()},
			}
		}
	}
	return nil
}

func (s *ContainerService[E, P]) referenceCount(ctx context.Context, userID, id string) (int64, error) {
	var total int64
	for _, c := range s.contents {
		n, err := c.countReferencing(ctx, userID, s.field, id)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Delete removes a record. A record still referenced by items is only removed
// with opts.Force, which first drops the reference from those items.
func (s *ContainerService[E, P]) Delete(ctx context.Context, userID, categoryID, id string, opts DeleteOptions) error {
	existing, err := s.Get(ctx, userID, categoryID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return &registrystore.NotFoundError{Resource: s.resource, ID: id}
	}
	n, err := s.referenceCount(ctx, userID, id)
	if err != nil {
		return err
	}
	if n > 0 {
		if !opts.Force {
			return &registrystore.ReferentialIntegrityError{
				Resource: s.resource,
				ID:       id,
				Message:  fmt.Sprintf("still referenced by %d items", n),
			}
		}
		for _, c := range s.contents {
			if _, err := c.detach(ctx, userID, s.field, id); err != nil {
				return err
			}
		}
		log.Info("Detached items before delete", "resource", s.resource, "id", id, "items", n)
	}
	deleted, err := s.docs.DeleteMany(ctx, query.ByID(userID, id))
	if err != nil {
		return err
	}
	if deleted == 0 {
		return &registrystore.NotFoundError{Resource: s.resource, ID: id}
	}
	return nil
}
