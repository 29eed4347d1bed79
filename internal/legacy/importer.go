package legacy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chirino/media-tracker/internal/model"
	"github.com/chirino/media-tracker/internal/security"
	"github.com/chirino/media-tracker/internal/service"
)

// DefaultPlatformName names the own platform of owned items when Options
// leaves it blank.
const DefaultPlatformName = "Owned"

// Options tunes an import.
type Options struct {
	// PlatformName and PlatformIcon describe the own platform assigned to
	// items the legacy export marks as owned.
	PlatformName string
	PlatformIcon string
}

// Stats counts what an import created.
type Stats struct {
	Categories   int                     `json:"categories"`
	Items        int                     `json:"items"`
	OwnPlatforms int                     `json:"ownPlatforms"`
	ItemsByType  map[model.MediaType]int `json:"itemsByType"`
	Duration     time.Duration           `json:"-"`
}

// ImportError reports the category and item an import stopped at.
type ImportError struct {
	Category string
	Item     string
	Err      error
}

func (e *ImportError) Error() string {
	switch {
	case e.Item != "":
		return fmt.Sprintf("legacy import failed at item %q of category %q: %v", e.Item, e.Category, e.Err)
	case e.Category != "":
		return fmt.Sprintf("legacy import failed at category %q: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("legacy import failed: %v", e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Importer writes legacy exports through the regular services, so imported
// records obey the same rules as interactively created ones.
type Importer struct {
	services *service.Services
	mapper   *Mapper
	now      func() time.Time
}

// NewImporter creates an importer. A nil now uses the wall clock.
func NewImporter(services *service.Services, now func() time.Time) *Importer {
	if now == nil {
		now = time.Now
	}
	return &Importer{services: services, mapper: NewMapper(now), now: now}
}

// Import materializes every category and item of export for userID. The first
// failure aborts the import; records written before it are kept. Importing the
// same export twice creates duplicates.
func (i *Importer) Import(ctx context.Context, userID string, export *Export, opts Options) (*Stats, error) {
	start := i.now()
	stats := &Stats{ItemsByType: map[model.MediaType]int{}}
	if strings.TrimSpace(opts.PlatformName) == "" {
		opts.PlatformName = DefaultPlatformName
	}
	if export == nil {
		return stats, nil
	}
	for ci := range export.Categories {
		if err := ctx.Err(); err != nil {
			return stats, &ImportError{Err: err}
		}
		if err := i.importCategory(ctx, userID, &export.Categories[ci], opts, stats); err != nil {
			return stats, err
		}
	}
	stats.Duration = i.now().Sub(start)
	log.Info("Imported legacy export", "user", userID, "categories", stats.Categories, "items", stats.Items, "ownPlatforms", stats.OwnPlatforms, "duration", stats.Duration)
	return stats, nil
}

func (i *Importer) importCategory(ctx context.Context, userID string, lc *Category, opts Options, stats *Stats) error {
	name := lc.Name.String()
	fail := func(item string, err error) error {
		return &ImportError{Category: name, Item: item, Err: err}
	}

	mediaType, ok := model.ParseMediaType(lc.Type.String())
	if !ok {
		return fail("", fmt.Errorf("unknown category type %q", lc.Type.String()))
	}
	category, err := i.services.Categories.Save(ctx, &model.Category{
		Entity:    model.Entity{Owner: userID},
		Name:      name,
		MediaType: mediaType,
		Color:     lc.Color.String(),
	}, service.SaveOptions{AllowSameName: true})
	if err != nil {
		return fail("", err)
	}
	stats.Categories++

	platform := &lazyPlatform{services: i.services, owner: userID, category: category.ID, opts: opts}
	for ii := range lc.Items {
		it := &lc.Items[ii]
		if err := i.importItem(ctx, mediaType, category.ID, it, platform, userID); err != nil {
			return fail(it.Name.String(), err)
		}
		stats.Items++
		stats.ItemsByType[mediaType]++
		security.RecordImportedItem(string(mediaType))
	}
	if platform.id != "" {
		stats.OwnPlatforms++
	}
	log.Debug("Imported legacy category", "category", category.ID, "name", name, "mediaType", mediaType, "items", len(lc.Items))
	return nil
}

func (i *Importer) importItem(ctx context.Context, mediaType model.MediaType, categoryID string, it *Item, platform *lazyPlatform, userID string) error {
	platformID := ""
	if flag(it.Owned) {
		id, err := platform.get(ctx)
		if err != nil {
			return err
		}
		platformID = id
	}

	switch mediaType {
	case model.MediaTypeBook:
		return saveMapped(ctx, i.services.Books, platformID, func() (*model.Book, error) { return i.mapper.Book(it, userID, categoryID) })
	case model.MediaTypeMovie:
		return saveMapped(ctx, i.services.Movies, platformID, func() (*model.Movie, error) { return i.mapper.Movie(it, userID, categoryID) })
	case model.MediaTypeTvShow:
		return saveMapped(ctx, i.services.TvShows, platformID, func() (*model.TvShow, error) { return i.mapper.TvShow(it, userID, categoryID) })
	case model.MediaTypeVideogame:
		return saveMapped(ctx, i.services.Videogames, platformID, func() (*model.Videogame, error) { return i.mapper.Videogame(it, userID, categoryID) })
	}
	return fmt.Errorf("unsupported media type %s", mediaType)
}

func saveMapped[E any, P model.ItemPtr[E]](ctx context.Context, svc *service.MediaItemService[E, P], platformID string, mapItem func() (*E, error)) error {
	item, err := mapItem()
	if err != nil {
		return err
	}
	P(item).Base().OwnPlatform = platformID
	_, err = svc.Save(ctx, item)
	return err
}

// lazyPlatform creates the default own platform of a category on first use.
type lazyPlatform struct {
	services *service.Services
	owner    string
	category string
	opts     Options
	id       string
}

func (p *lazyPlatform) get(ctx context.Context) (string, error) {
	if p.id != "" {
		return p.id, nil
	}
	created, err := p.services.OwnPlatforms.Save(ctx, &model.OwnPlatform{
		Entity:   model.Entity{Owner: p.owner},
		Category: p.category,
		Name:     p.opts.PlatformName,
		Icon:     p.opts.PlatformIcon,
	}, service.SaveOptions{AllowSameName: true})
	if err != nil {
		return "", fmt.Errorf("create default own platform: %w", err)
	}
	p.id = created.ID
	return p.id, nil
}
