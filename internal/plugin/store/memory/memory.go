// Package memory is a process-local store. Documents are kept BSON encoded so
// that records round-trip through the same codecs as the mongo store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/query"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "memory",
		Loader: func(ctx context.Context) (registrystore.Store, error) {
			return New(), nil
		},
	})
}

// Store implements registrystore.Store in memory.
type Store struct {
	categories   *collection[model.Category]
	groups       *collection[model.Group]
	ownPlatforms *collection[model.OwnPlatform]
	books        *collection[model.Book]
	movies       *collection[model.Movie]
	tvShows      *collection[model.TvShow]
	videogames   *collection[model.Videogame]
}

// New returns an empty store.
func New() *Store {
	return &Store{
		categories:   newCollection[model.Category](registrystore.CollectionCategories),
		groups:       newCollection[model.Group](registrystore.CollectionGroups),
		ownPlatforms: newCollection[model.OwnPlatform](registrystore.CollectionOwnPlatforms),
		books:        newCollection[model.Book](registrystore.CollectionBooks),
		movies:       newCollection[model.Movie](registrystore.CollectionMovies),
		tvShows:      newCollection[model.TvShow](registrystore.CollectionTvShows),
		videogames:   newCollection[model.Videogame](registrystore.CollectionVideogames),
	}
}

func (s *Store) Categories() registrystore.Collection[model.Category] { return s.categories }
func (s *Store) Groups() registrystore.Collection[model.Group] { return s.groups }
func (s *Store) OwnPlatforms() registrystore.Collection[model.OwnPlatform] { return s.ownPlatforms }
func (s *Store) Books() registrystore.Collection[model.Book] { return s.books }
func (s *Store) Movies() registrystore.Collection[model.Movie] { return s.movies }
func (s *Store) TvShows() registrystore.Collection[model.TvShow] { return s.tvShows }
func (s *Store) Videogames() registrystore.Collection[model.Videogame] { return s.videogames }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close(ctx context.Context) error { return nil }

var _ registrystore.Store = (*Store)(nil)

type document struct {
	id  string
	raw bson.Raw
}

type collection[E any] struct {
	name string
	mu   sync.RWMutex
	docs []document
}

func newCollection[E any](name string) *collection[E] {
	return &collection[E]{name: name}
}

type match struct {
	pos    int
	fields bson.M
}

// scan returns the documents matching cond in insertion order. Callers hold the lock.
func (c *collection[E]) scan(cond query.Condition) ([]match, error) {
	var out []match
	for i, d := range c.docs {
		fields := bson.M{}
		if err := bson.Unmarshal(d.raw, &fields); err != nil {
			return nil, err
		}
		if matches(fields, cond) {
			out = append(out, match{pos: i, fields: fields})
		}
	}
	return out, nil
}

func (c *collection[E]) decode(raw bson.Raw) (*E, error) {
	var doc E
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *collection[E]) FindOne(ctx context.Context, cond query.Condition) (*E, error) {
	if err := ctx.Err(); err != nil {
		return nil, registrystore.Wrap("find_one", c.name, err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	found, err := c.scan(cond)
	if err != nil {
		return nil, registrystore.Wrap("find_one", c.name, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	doc, err := c.decode(c.docs[found[0].pos].raw)
	return doc, registrystore.Wrap("find_one", c.name, err)
}

func (c *collection[E]) Find(ctx context.Context, cond query.Condition, order query.Ordering) ([]E, error) {
	if err := ctx.Err(); err != nil {
		return nil, registrystore.Wrap("find", c.name, err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	found, err := c.scan(cond)
	if err != nil {
		return nil, registrystore.Wrap("find", c.name, err)
	}
	sort.SliceStable(found, func(i, j int) bool {
		return compareDocs(found[i].fields, found[j].fields, order) < 0
	})
	out := make([]E, 0, len(found))
	for _, m := range found {
		doc, err := c.decode(c.docs[m.pos].raw)
		if err != nil {
			return nil, registrystore.Wrap("find", c.name, err)
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (c *collection[E]) Count(ctx context.Context, cond query.Condition) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, registrystore.Wrap("count", c.name, err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	found, err := c.scan(cond)
	if err != nil {
		return 0, registrystore.Wrap("count", c.name, err)
	}
	return int64(len(found)), nil
}

func (c *collection[E]) encode(doc *E) (string, bson.Raw, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return "", nil, err
	}
	id, ok := bson.Raw(raw).Lookup(model.FieldID).StringValueOK()
	if !ok || id == "" {
		return "", nil, fmt.Errorf("document has no string %s", model.FieldID)
	}
	return id, raw, nil
}

func (c *collection[E]) Insert(ctx context.Context, doc *E) error {
	if err := ctx.Err(); err != nil {
		return registrystore.Wrap("insert", c.name, err)
	}
	id, raw, err := c.encode(doc)
	if err != nil {
		return registrystore.Wrap("insert", c.name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.docs {
		if d.id == id {
			return &registrystore.ConflictError{
				Message: fmt.Sprintf("%s already holds a document with id %s", c.name, id),
				Code:    "duplicate_id",
			}
		}
	}
	c.docs = append(c.docs, document{id: id, raw: raw})
	return nil
}

func (c *collection[E]) Replace(ctx context.Context, id string, doc *E) error {
	if err := ctx.Err(); err != nil {
		return registrystore.Wrap("replace", c.name, err)
	}
	docID, raw, err := c.encode(doc)
	if err != nil {
		return registrystore.Wrap("replace", c.name, err)
	}
	if docID != id {
		return registrystore.Wrap("replace", c.name, fmt.Errorf("document id %s does not match %s", docID, id))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.docs {
		if d.id == id {
			c.docs[i].raw = raw
			return nil
		}
	}
	return &registrystore.NotFoundError{Resource: c.name, ID: id}
}

func (c *collection[E]) DeleteMany(ctx context.Context, cond query.Condition) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, registrystore.Wrap("delete_many", c.name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	found, err := c.scan(cond)
	if err != nil {
		return 0, registrystore.Wrap("delete_many", c.name, err)
	}
	if len(found) == 0 {
		return 0, nil
	}
	drop := make(map[int]bool, len(found))
	for _, m := range found {
		drop[m.pos] = true
	}
	kept := c.docs[:0]
	for i, d := range c.docs {
		if !drop[i] {
			kept = append(kept, d)
		}
	}
	c.docs = kept
	return int64(len(found)), nil
}

func (c *collection[E]) Unset(ctx context.Context, cond query.Condition, fields ...string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, registrystore.Wrap("unset", c.name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	found, err := c.scan(cond)
	if err != nil {
		return 0, registrystore.Wrap("unset", c.name, err)
	}
	var modified int64
	for _, m := range found {
		changed := false
		for _, f := range fields {
			if _, ok := m.fields[f]; ok {
				delete(m.fields, f)
				changed = true
			}
		}
		if !changed {
			continue
		}
		raw, err := bson.Marshal(m.fields)
		if err != nil {
			return modified, registrystore.Wrap("unset", c.name, err)
		}
		c.docs[m.pos].raw = raw
		modified++
	}
	return modified, nil
}
