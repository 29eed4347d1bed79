package legacy

import (
	"fmt"
	"strings"
	"time"

	"github.com/chirino/media-tracker/internal/model"
	"github.com/spf13/cast"
)

// listSeparator joins multi-value columns in legacy exports.
const listSeparator = ", "

// MaxTimesCompleted bounds TIMES_COMPLETED. Each completion becomes one
// stored date.
const MaxTimesCompleted = 1000

var legacyImportance = map[string]model.Importance{
	"NONE":   model.ImportanceNone,
	"LOW":    model.ImportanceLow,
	"MEDIUM": model.ImportanceMedium,
	"HIGH":   model.ImportanceHigh,
}

// Mapper converts legacy items to media items.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a mapper that stamps synthesized completions with now.
func NewMapper(now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{now: now}
}

// Base translates the fields shared by every kind. The returned item has no
// id and no own platform.
func (m *Mapper) Base(it *Item, owner, categoryID string) (model.MediaItem, error) {
	releaseDate, err := parseDate(it.ReleaseDate)
	if err != nil {
		return model.MediaItem{}, fmt.Errorf("RELEASE_DATE: %w", err)
	}
	item := model.MediaItem{
		Entity:      model.Entity{Owner: owner},
		Category:    categoryID,
		Name:        it.Name.String(),
		Genres:      splitList(it.Genres),
		Description: it.Description.String(),
		ReleaseDate: releaseDate,
		ImageURL:    it.ImageURL.String(),
		CatalogID:   it.CatalogID.String(),
		Importance:  mapImportance(it.Importance),
		UserComment: it.UserComment.String(),
		Active:      flag(it.Active),
	}
	if err := m.applyCompletion(&item, it); err != nil {
		return model.MediaItem{}, err
	}
	return item, nil
}

// applyCompletion infers the completion list from the single completion date
// and the completion counter of the legacy item. The counter carries no dates,
// so repeated completions are approximated as that many completions today and
// the item is marked as being redone.
func (m *Mapper) applyCompletion(item *model.MediaItem, it *Item) error {
	completed, err := parseDate(it.CompletionDate)
	if err != nil {
		return fmt.Errorf("COMPLETION_DATE: %w", err)
	}
	times, err := it.TimesCompleted.Count(MaxTimesCompleted)
	if err != nil {
		return fmt.Errorf("TIMES_COMPLETED: %w", err)
	}
	switch {
	case completed != nil:
		item.CompletedOn = []time.Time{*completed}
	case times > 0:
		today := m.today()
		item.CompletedOn = make([]time.Time, times)
		for i := range item.CompletedOn {
			item.CompletedOn[i] = today
		}
		item.MarkedAsRedo = true
	default:
		item.CompletedOn = []time.Time{}
	}
	return nil
}

func (m *Mapper) today() time.Time {
	y, mo, d := m.now().UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func (m *Mapper) Book(it *Item, owner, categoryID string) (*model.Book, error) {
	base, err := m.Base(it, owner, categoryID)
	if err != nil {
		return nil, err
	}
	return &model.Book{
		MediaItem:   base,
		Authors:     splitList(it.Author),
		PagesNumber: it.PagesNumber.Int(),
	}, nil
}

func (m *Mapper) Movie(it *Item, owner, categoryID string) (*model.Movie, error) {
	base, err := m.Base(it, owner, categoryID)
	if err != nil {
		return nil, err
	}
	return &model.Movie{
		MediaItem: base,
		Directors: splitList(it.Director),
		Duration:  it.Duration.Int(),
	}, nil
}

func (m *Mapper) TvShow(it *Item, owner, categoryID string) (*model.TvShow, error) {
	base, err := m.Base(it, owner, categoryID)
	if err != nil {
		return nil, err
	}
	nextEpisode, err := parseDate(it.NextEpisodeAirDate)
	if err != nil {
		return nil, fmt.Errorf("NEXT_EPISODE_AIR_DATE: %w", err)
	}
	return &model.TvShow{
		MediaItem:             base,
		Creators:              splitList(it.Creator),
		AverageEpisodeRuntime: it.EpisodeRuntime.Int(),
		EpisodesNumber:        it.EpisodesNumber.Int(),
		SeasonsNumber:         it.SeasonsNumber.Int(),
		InProduction:          flag(it.InProduction),
		NextEpisodeAirDate:    nextEpisode,
	}, nil
}

func (m *Mapper) Videogame(it *Item, owner, categoryID string) (*model.Videogame, error) {
	base, err := m.Base(it, owner, categoryID)
	if err != nil {
		return nil, err
	}
	return &model.Videogame{
		MediaItem:     base,
		Developers:    splitList(it.Developer),
		Publishers:    splitList(it.Publisher),
		Platforms:     splitList(it.Platforms),
		AverageLength: it.AverageLength.Float(),
	}, nil
}

// flag reads a legacy boolean: "1" is true, anything else false.
func flag(v Value) bool {
	return v.String() == "1"
}

func splitList(v Value) []string {
	s := v.String()
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDate reads an epoch-millisecond date. Blank values yield nil.
func parseDate(v Value) (*time.Time, error) {
	s := v.String()
	if s == "" {
		return nil, nil
	}
	ms, err := cast.ToInt64E(s)
	if err != nil {
		return nil, fmt.Errorf("invalid epoch milliseconds %q", s)
	}
	t := time.UnixMilli(ms).UTC()
	return &t, nil
}

func mapImportance(v Value) model.Importance {
	if imp, ok := legacyImportance[strings.ToUpper(v.String())]; ok {
		return imp
	}
	return model.ImportanceNone
}
