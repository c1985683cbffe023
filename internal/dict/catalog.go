// Package dict serves display metadata for coded values such as offer
// statuses. Lookups read an immutable snapshot and never fail.
package dict

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// OfferStatusDict is the dictionary holding offer status labels.
const OfferStatusDict = "fk_offer_status"

const translationNamespace = "offer"

var ErrSourceNotConfigured = errors.New("dictionary_source_not_configured")

// Entry is one dictionary value as stored in the source.
type Entry struct {
	Label    string `mapstructure:"label" json:"label"`
	CSSClass string `mapstructure:"cssClass" json:"css_class"`
}

// Status is the presentation of a status code.
type Status struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	CSS  string `json:"css"`
}

// Source loads dictionary values keyed by code.
type Source interface {
	Load(ctx context.Context) (map[string]Entry, error)
}

type snapshot struct {
	values   map[string]Entry
	loadedAt time.Time
}

// Catalog holds the current status dictionary. Readers never block writers.
type Catalog struct {
	log        *zap.Logger
	source     Source
	translator Translator
	current    atomic.Pointer[snapshot]
}

func NewCatalog(log *zap.Logger, source Source, translator Translator) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	if translator == nil {
		translator = IdentityTranslator{}
	}
	return &Catalog{
		log:        log.Named("dict.catalog"),
		source:     source,
		translator: translator,
	}
}

// Refresh reloads the dictionary from its source. On failure the previous
// snapshot stays in place.
func (c *Catalog) Refresh(ctx context.Context) error {
	if c.source == nil {
		return ErrSourceNotConfigured
	}
	values, err := c.source.Load(ctx)
	if err != nil {
		c.log.Warn("dictionary refresh failed", zap.String("dict", OfferStatusDict), zap.Error(err))
		return err
	}
	c.Store(values)
	return nil
}

// Store replaces the snapshot. Codes are normalized to upper case.
func (c *Catalog) Store(values map[string]Entry) {
	normalized := make(map[string]Entry, len(values))
	for code, entry := range values {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		normalized[code] = entry
	}
	c.current.Store(&snapshot{values: normalized, loadedAt: time.Now().UTC()})
	c.log.Info("dictionary loaded", zap.String("dict", OfferStatusDict), zap.Int("values", len(normalized)))
}

func (c *Catalog) Loaded() bool {
	return c.current.Load() != nil
}

// LoadedAt reports when the current snapshot was stored.
func (c *Catalog) LoadedAt() time.Time {
	snap := c.current.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.loadedAt
}

// Resolve returns the presentation for code. Unknown codes and a cold
// catalog resolve to {code, code, ""}.
func (c *Catalog) Resolve(code string) Status {
	fallback := Status{ID: code, Name: code}
	if code == "" {
		return fallback
	}
	snap := c.current.Load()
	if snap == nil {
		return fallback
	}
	entry, ok := snap.values[code]
	if !ok || entry.Label == "" {
		return fallback
	}
	return Status{
		ID:   code,
		Name: c.translator.Translate(translationNamespace, entry.Label),
		CSS:  entry.CSSClass,
	}
}

// List resolves every known code, ordered by code.
func (c *Catalog) List() []Status {
	snap := c.current.Load()
	if snap == nil {
		return []Status{}
	}
	codes := make([]string, 0, len(snap.values))
	for code := range snap.values {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]Status, 0, len(codes))
	for _, code := range codes {
		out = append(out, c.Resolve(code))
	}
	return out
}
