package service

import (
	"context"
	"testing"
	"time"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/plugin/store/memory"
	registrystore "github.com/chirino/media-tracker/internal/registry/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "alice"
	bob   = "bob"
)

var fixedNow = time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)

func newTestServices(t *testing.T) *Services {
	t.Helper()
	return New(memory.New(), WithClock(func() time.Time { return fixedNow }))
}

func mustCategory(t *testing.T, svc *Services, owner, name string, mediaType model.MediaType) *model.Category {
	t.Helper()
	c, err := svc.Categories.Save(context.Background(), &model.Category{
		Entity:    model.Entity{Owner: owner},
		Name:      name,
		MediaType: mediaType,
	}, SaveOptions{})
	require.NoError(t, err)
	return c
}

func mustMovie(t *testing.T, svc *Services, m *model.Movie) *model.Movie {
	t.Helper()
	saved, err := svc.Movies.Save(context.Background(), m)
	require.NoError(t, err)
	return saved
}

func movie(owner, category, name string) *model.Movie {
	return &model.Movie{MediaItem: model.MediaItem{Entity: model.Entity{Owner: owner}, Category: category, Name: name}}
}

func names[E any, P model.ItemPtr[E]](items []E) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = P(&items[i]).Base().Name
	}
	return out
}

func TestCategoryAndMovieScenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	c := mustCategory(t, svc, alice, "Sci-Fi Movies", model.MediaTypeMovie)
	require.NotEmpty(t, c.ID)

	m := movie(alice, c.ID, "Dune")
	m.Importance = model.ImportanceMedium
	saved := mustMovie(t, svc, m)
	require.NotEmpty(t, saved.ID)

	all, err := svc.Movies.List(ctx, alice, c.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, saved.ID, all[0].ID)
	assert.Equal(t, "Dune", all[0].Name)
	assert.Equal(t, model.ImportanceMedium, all[0].Importance)
}

func TestSaveMediaItemRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	c := mustCategory(t, svc, alice, "Reading", model.MediaTypeBook)

	released := time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
	saved, err := svc.Books.Save(ctx, &model.Book{
		MediaItem: model.MediaItem{
			Entity:      model.Entity{Owner: alice},
			Category:    c.ID,
			Name:        "  Dune  ",
			Genres:      []string{"sci-fi"},
			ReleaseDate: &released,
			CompletedOn: []time.Time{fixedNow},
			Active:      true,
		},
		Authors:     []string{"Frank Herbert"},
		PagesNumber: 412,
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := svc.Books.Get(ctx, alice, c.ID, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dune", got.Name)
	assert.Equal(t, []string{"sci-fi"}, got.Genres)
	assert.Equal(t, []string{"Frank Herbert"}, got.Authors)
	assert.Equal(t, 412, got.PagesNumber)
	assert.Equal(t, model.ImportanceNone, got.Importance)
	assert.True(t, got.Active)
	require.NotNil(t, got.ReleaseDate)
	assert.True(t, released.Equal(*got.ReleaseDate))
	require.Len(t, got.CompletedOn, 1)
	assert.True(t, fixedNow.Equal(got.CompletedOn[0]))
	assert.True(t, fixedNow.Equal(got.CreatedAt))

	t.Run("other users do not see it", func(t *testing.T) {
		other, err := svc.Books.Get(ctx, bob, c.ID, saved.ID)
		require.NoError(t, err)
		assert.Nil(t, other)
	})

	t.Run("update keeps the creation time", func(t *testing.T) {
		later := fixedNow.Add(time.Hour)
		svc.Books.now = func() time.Time { return later }
		t.Cleanup(func() { svc.Books.now = func() time.Time { return fixedNow } })

		got.Name = "Dune Messiah"
		updated, err := svc.Books.Save(ctx, got)
		require.NoError(t, err)
		assert.Equal(t, saved.ID, updated.ID)
		assert.True(t, fixedNow.Equal(updated.CreatedAt))
		assert.True(t, later.Equal(updated.UpdatedAt))
	})

	t.Run("update of a missing item", func(t *testing.T) {
		ghost := &model.Book{MediaItem: model.MediaItem{Entity: model.Entity{ID: "nope", Owner: alice}, Category: c.ID, Name: "Ghost"}}
		_, err := svc.Books.Save(ctx, ghost)
		var notFound *registrystore.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestSaveMediaItemPreconditions(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	movies := mustCategory(t, svc, alice, "Movies", model.MediaTypeMovie)
	books := mustCategory(t, svc, alice, "Books", model.MediaTypeBook)
	otherMovies := mustCategory(t, svc, alice, "More movies", model.MediaTypeMovie)
	bobs := mustCategory(t, svc, bob, "Movies", model.MediaTypeMovie)

	foreignGroup, err := svc.Groups.Save(ctx, &model.Group{Entity: model.Entity{Owner: alice}, Category: otherMovies.ID, Name: "Saga"}, SaveOptions{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		item  *model.Movie
		field string
	}{
		{name: "missing name", item: movie(alice, movies.ID, "   "), field: "name"},
		{name: "missing category", item: movie(alice, "nope", "Alien"), field: model.FieldCategory},
		{name: "category of another user", item: movie(alice, bobs.ID, "Alien"), field: model.FieldCategory},
		{name: "category of another kind", item: movie(alice, books.ID, "Alien"), field: model.FieldCategory},
		{name: "group in another category", item: func() *model.Movie {
			m := movie(alice, movies.ID, "Alien")
			m.Group = foreignGroup.ID
			return m
		}(), field: model.FieldGroup},
		{name: "unknown own platform", item: func() *model.Movie {
			m := movie(alice, movies.ID, "Alien")
			m.OwnPlatform = "nope"
			return m
		}(), field: model.FieldOwnPlatform},
		{name: "bad importance", item: func() *model.Movie {
			m := movie(alice, movies.ID, "Alien")
			m.Importance = "999"
			return m
		}(), field: "importance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Movies.Save(ctx, tt.item)
			var ve *registrystore.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, tt.item.ID)
		})
	}

	all, err := svc.Movies.List(ctx, alice, movies.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeleteMediaItem(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	c := mustCategory(t, svc, alice, "Movies", model.MediaTypeMovie)
	m := mustMovie(t, svc, movie(alice, c.ID, "Alien"))

	var notFound *registrystore.NotFoundError
	require.ErrorAs(t, svc.Movies.Delete(ctx, bob, c.ID, m.ID), &notFound)
	require.ErrorAs(t, svc.Movies.Delete(ctx, alice, "other", m.ID), &notFound)

	require.NoError(t, svc.Movies.Delete(ctx, alice, c.ID, m.ID))
	got, err := svc.Movies.Get(ctx, alice, c.ID, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFilterAndOrderMediaItems(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	c := mustCategory(t, svc, alice, "Movies", model.MediaTypeMovie)
	saga, err := svc.Groups.Save(ctx, &model.Group{Entity: model.Entity{Owner: alice}, Category: c.ID, Name: "Alien saga"}, SaveOptions{})
	require.NoError(t, err)

	alien := movie(alice, c.ID, "Alien")
	alien.Group = saga.ID
	alien.OrderInGroup = 1
	alien.Importance = model.ImportanceHigh
	alien.CompletedOn = []time.Time{fixedNow}
	alien.Directors = []string{"Ridley Scott"}
	mustMovie(t, svc, alien)

	aliens := movie(alice, c.ID, "Aliens")
	aliens.Group = saga.ID
	aliens.OrderInGroup = 2
	aliens.Importance = model.ImportanceMedium
	aliens.Directors = []string{"James Cameron"}
	mustMovie(t, svc, aliens)

	blade := movie(alice, c.ID, "Blade Runner")
	blade.Importance = model.ImportanceHigh
	blade.Directors = []string{"Ridley Scott"}
	mustMovie(t, svc, blade)

	complete, incomplete := true, false

	tests := []struct {
		name   string
		filter *model.MediaItemFilter
		sortBy []model.SortBy
		want   []string
	}{
		{name: "default order", want: []string{"Alien", "Aliens", "Blade Runner"}},
		{name: "complete", filter: &model.MediaItemFilter{Complete: &complete}, want: []string{"Alien"}},
		{name: "not complete", filter: &model.MediaItemFilter{Complete: &incomplete}, want: []string{"Aliens", "Blade Runner"}},
		{name: "no group", filter: &model.MediaItemFilter{Groups: &model.ReferenceFilter{None: true}}, want: []string{"Blade Runner"}},
		{name: "any group", filter: &model.MediaItemFilter{Groups: &model.ReferenceFilter{Any: true}}, want: []string{"Alien", "Aliens"}},
		{name: "importance", filter: &model.MediaItemFilter{Importance: []model.Importance{model.ImportanceHigh}}, want: []string{"Alien", "Blade Runner"}},
		{name: "name term matches directors", filter: &model.MediaItemFilter{Name: "ridley"}, want: []string{"Alien", "Blade Runner"}},
		{
			name:   "importance descending then name descending",
			sortBy: []model.SortBy{{Field: model.SortImportance}, {Field: model.SortName}},
			want:   []string{"Blade Runner", "Alien", "Aliens"},
		},
		{
			name:   "group order",
			filter: &model.MediaItemFilter{Groups: &model.ReferenceFilter{IDs: []string{saga.ID}}},
			sortBy: []model.SortBy{{Field: model.SortGroup, Ascending: false}},
			want:   []string{"Aliens", "Alien"},
		},
		{
			name:   "director",
			sortBy: []model.SortBy{{Field: model.SortDirector, Ascending: true}, {Field: model.SortName, Ascending: true}},
			want:   []string{"Aliens", "Alien", "Blade Runner"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := svc.Movies.FilterAndOrder(ctx, alice, c.ID, tt.filter, tt.sortBy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(first))

			second, err := svc.Movies.FilterAndOrder(ctx, alice, c.ID, tt.filter, tt.sortBy)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}

	t.Run("sort field of another kind", func(t *testing.T) {
		_, err := svc.Movies.FilterAndOrder(ctx, alice, c.ID, nil, []model.SortBy{{Field: model.SortAuthor}})
		var ve *registrystore.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestCompleteFilterFlipsOnCompletion(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	c := mustCategory(t, svc, alice, "Movies", model.MediaTypeMovie)
	m := mustMovie(t, svc, movie(alice, c.ID, "Alien"))

	complete, incomplete := true, false
	count := func(flag *bool) int {
		items, err := svc.Movies.FilterAndOrder(ctx, alice, c.ID, &model.MediaItemFilter{Complete: flag}, nil)
		require.NoError(t, err)
		return len(items)
	}
	assert.Equal(t, 0, count(&complete))
	assert.Equal(t, 1, count(&incomplete))

	m.CompletedOn = append(m.CompletedOn, fixedNow)
	mustMovie(t, svc, m)
	assert.Equal(t, 1, count(&complete))
	assert.Equal(t, 0, count(&incomplete))
}

func TestSearchMediaItems(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	fiction := mustCategory(t, svc, alice, "Fiction", model.MediaTypeBook)
	essays := mustCategory(t, svc, alice, "Essays", model.MediaTypeBook)
	bobs := mustCategory(t, svc, bob, "Fiction", model.MediaTypeBook)

	book := func(owner, category, name string, authors ...string) {
		_, err := svc.Books.Save(ctx, &model.Book{
			MediaItem: model.MediaItem{Entity: model.Entity{Owner: owner}, Category: category, Name: name},
			Authors:   authors,
		})
		require.NoError(t, err)
	}
	book(alice, fiction.ID, "Dune", "Frank Herbert")
	book(alice, essays.ID, "The Maker of Dune", "Frank Herbert")
	book(alice, fiction.ID, "Hyperion", "Dan Simmons")
	book(bob, bobs.ID, "Dune", "Frank Herbert")

	found, err := svc.Books.Search(ctx, alice, "herbert", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "The Maker of Dune"}, names(found))

	found, err = svc.Books.Search(ctx, alice, "DUNE", nil)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = svc.Books.Search(ctx, alice, "  ", nil)
	var ve *registrystore.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestCategoryMediaTypeChange(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	empty := mustCategory(t, svc, alice, "Empty", model.MediaTypeMovie)
	empty.MediaType = model.MediaTypeBook
	_, err := svc.Categories.Save(ctx, empty, SaveOptions{})
	require.NoError(t, err)

	full := mustCategory(t, svc, alice, "Full", model.MediaTypeMovie)
	mustMovie(t, svc, movie(alice, full.ID, "Alien"))
	full.MediaType = model.MediaTypeBook
	_, err = svc.Categories.Save(ctx, full, SaveOptions{})
	var ri *registrystore.ReferentialIntegrityError
	require.ErrorAs(t, err, &ri)

	stored, err := svc.Categories.Get(ctx, alice, full.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MediaTypeMovie, stored.MediaType)
}

func TestCategoryNameUniqueness(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	first := mustCategory(t, svc, alice, "Movies", model.MediaTypeMovie)

	_, err := svc.Categories.Save(ctx, &model.Category{Entity: model.Entity{Owner: alice}, Name: "MOVIES", MediaType: model.MediaTypeMovie}, SaveOptions{})
	var conflict *registrystore.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, registrystore.CodeUniquenessViolation, conflict.Code)

	// Other users and renames of the same category are unaffected.
	mustCategory(t, svc, bob, "Movies", model.MediaTypeMovie)
	first.Color = "#ff0000"
	_, err = svc.Categories.Save(ctx, first, SaveOptions{})
	require.NoError(t, err)

	_, err = svc.Categories.Save(ctx, &model.Category{Entity: model.Entity{Owner: alice}, Name: "Movies", MediaType: model.MediaTypeMovie}, SaveOptions{AllowSameName: true})
	require.NoError(t, err)

	all, err := svc.Categories.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGroupNameUniqueness(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	c := mustCategory(t, svc, alice, "Movies", model.MediaTypeMovie)
	other := mustCategory(t, svc, alice, "Other movies", model.MediaTypeMovie)

	group := func(category string) *model.Group {
		return &model.Group{Entity: model.Entity{Owner: alice}, Category: category, Name: "Trilogy"}
	}
	_, err := svc.Groups.Save(ctx, group(c.ID), SaveOptions{})
	require.NoError(t, err)

	_, err = svc.Groups.Save(ctx, group(c.ID), SaveOptions{})
	var conflict *registrystore.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, registrystore.CodeUniquenessViolation, conflict.Code)

	_, err = svc.Groups.Save(ctx, group(other.ID), SaveOptions{})
	require.NoError(t, err)

	_, err = svc.Groups.Save(ctx, group(c.ID), SaveOptions{AllowSameName: true})
	require.NoError(t, err)

	groups, err := svc.Groups.List(ctx, alice, c.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, groups[0].Name, groups[1].Name)
}

func TestGroupRequiresCategory(t *testing.T) {
	svc := newTestServices(t)
	_, err := svc.OwnPlatforms.Save(context.Background(), &model.OwnPlatform{Entity: model.Entity{Owner: alice}, Category: "nope", Name: "Shelf"}, SaveOptions{})
	var ve *registrystore.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, model.FieldCategory, ve.Field)
}

func TestDeleteGroupAndPlatform(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	c := mustCategory(t, svc, alice, "Movies", model.MediaTypeMovie)
	saga, err := svc.Groups.Save(ctx, &model.Group{Entity: model.Entity{Owner: alice}, Category: c.ID, Name: "Saga"}, SaveOptions{})
	require.NoError(t, err)
	shelf, err := svc.OwnPlatforms.Save(ctx, &model.OwnPlatform{Entity: model.Entity{Owner: alice}, Category: c.ID, Name: "Shelf"}, SaveOptions{})
	require.NoError(t, err)

	m := movie(alice, c.ID, "Alien")
	m.Group = saga.ID
	m.OrderInGroup = 3
	m.OwnPlatform = shelf.ID
	m = mustMovie(t, svc, m)

	var ri *registrystore.ReferentialIntegrityError
	require.ErrorAs(t, svc.Groups.Delete(ctx, alice, c.ID, saga.ID, DeleteOptions{}), &ri)
	require.ErrorAs(t, svc.OwnPlatforms.Delete(ctx, alice, c.ID, shelf.ID, DeleteOptions{}), &ri)

	require.NoError(t, svc.Groups.Delete(ctx, alice, c.ID, saga.ID, DeleteOptions{Force: true}))
	got, err := svc.Movies.Get(ctx, alice, c.ID, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Group)
	assert.Zero(t, got.OrderInGroup)
	assert.Equal(t, shelf.ID, got.OwnPlatform)

	require.NoError(t, svc.OwnPlatforms.Delete(ctx, alice, c.ID, shelf.ID, DeleteOptions{Force: true}))
	got, err = svc.Movies.Get(ctx, alice, c.ID, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.OwnPlatform)

	// Unreferenced containers go without force.
	empty, err := svc.Groups.Save(ctx, &model.Group{Entity: model.Entity{Owner: alice}, Category: c.ID, Name: "Empty"}, SaveOptions{})
	require.NoError(t, err)
	require.NoError(t, svc.Groups.Delete(ctx, alice, c.ID, empty.ID, DeleteOptions{}))

	var notFound *registrystore.NotFoundError
	assert.ErrorAs(t, svc.Groups.Delete(ctx, alice, c.ID, empty.ID, DeleteOptions{}), &notFound)
}

func TestMoveReferencedGroup(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	c := mustCategory(t, svc, alice, "Movies", model.MediaTypeMovie)
	other := mustCategory(t, svc, alice, "Other", model.MediaTypeMovie)
	saga, err := svc.Groups.Save(ctx, &model.Group{Entity: model.Entity{Owner: alice}, Category: c.ID, Name: "Saga"}, SaveOptions{})
	require.NoError(t, err)
	m := movie(alice, c.ID, "Alien")
	m.Group = saga.ID
	mustMovie(t, svc, m)

	saga.Category = other.ID
	_, err = svc.Groups.Save(ctx, saga, SaveOptions{})
	var ri *registrystore.ReferentialIntegrityError
	assert.ErrorAs(t, err, &ri)
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	c := mustCategory(t, svc, alice, "Movies", model.MediaTypeMovie)
	saga, err := svc.Groups.Save(ctx, &model.Group{Entity: model.Entity{Owner: alice}, Category: c.ID, Name: "Saga"}, SaveOptions{})
	require.NoError(t, err)
	m := movie(alice, c.ID, "Alien")
	m.Group = saga.ID
	mustMovie(t, svc, m)
	keep := mustCategory(t, svc, alice, "Keep", model.MediaTypeMovie)
	mustMovie(t, svc, movie(alice, keep.ID, "Heat"))

	var ri *registrystore.ReferentialIntegrityError
	require.ErrorAs(t, svc.Categories.Delete(ctx, alice, c.ID, DeleteOptions{}), &ri)

	require.NoError(t, svc.Categories.Delete(ctx, alice, c.ID, DeleteOptions{Force: true}))

	got, err := svc.Categories.Get(ctx, alice, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	groups, err := svc.Groups.List(ctx, alice, c.ID)
	require.NoError(t, err)
	assert.Empty(t, groups)
	items, err := svc.Movies.List(ctx, alice, c.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	kept, err := svc.Movies.List(ctx, alice, keep.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	empty := mustCategory(t, svc, alice, "Empty", model.MediaTypeBook)
	require.NoError(t, svc.Categories.Delete(ctx, alice, empty.ID, DeleteOptions{}))

	var notFound *registrystore.NotFoundError
	assert.ErrorAs(t, svc.Categories.Delete(ctx, bob, keep.ID, DeleteOptions{}), &notFound)
}
