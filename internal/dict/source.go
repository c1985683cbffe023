package dict

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DefaultOfferStatuses is served when no dictionary file is found.
func DefaultOfferStatuses() map[string]Entry {
	return map[string]Entry{
		"DRAFT":     {Label: "Draft", CSSClass: "label-default"},
		"VALIDATED": {Label: "Validated", CSSClass: "label-primary"},
		"SIGNED":    {Label: "Signed", CSSClass: "label-success"},
		"NOTSIGNED": {Label: "Not signed", CSSClass: "label-danger"},
		"BILLED":    {Label: "Billed", CSSClass: "label-info"},
		"CANCELED":  {Label: "Canceled", CSSClass: "label-warning"},
	}
}

type dictValues struct {
	Values map[string]Entry `mapstructure:"values"`
}

// ViperSource reads dictionaries from a YAML file such as:
//
//	fk_offer_status:
//	  values:
//	    DRAFT: {label: Draft, cssClass: label-default}
//
// Every Load reads through a fresh viper instance; the file watcher owns a
// separate one, so a reload never shares viper state with a caller.
type ViperSource struct {
	log   *zap.Logger
	name  string
	paths []string

	mu       sync.Mutex
	found    bool
	watching bool
}

func NewViperSource(log *zap.Logger, name string, paths []string) *ViperSource {
	if log == nil {
		log = zap.NewNop()
	}
	var clean []string
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return &ViperSource{log: log.Named("dict.source"), name: name, paths: clean}
}

func (s *ViperSource) newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(s.name)
	v.SetConfigType("yml")
	for _, p := range s.paths {
		v.AddConfigPath(p)
	}
	return v
}

func (s *ViperSource) Load(ctx context.Context) (map[string]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values, found, err := s.read()
	if err != nil {
		return nil, err
	}
	s.found = found
	if !found {
		return DefaultOfferStatuses(), nil
	}
	return values, nil
}

func (s *ViperSource) read() (map[string]Entry, bool, error) {
	v := s.newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	values, err := decode(v)
	return values, true, err
}

// Watch calls onChange with the new values whenever the file changes.
// It is a no-op when no file was found by the last Load. A change that
// leaves the file missing or unreadable keeps the previous values.
func (s *ViperSource) Watch(onChange func(map[string]Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.found {
		return false
	}
	if s.watching {
		return true
	}

	w := s.newViper()
	w.OnConfigChange(func(e fsnotify.Event) {
		s.mu.Lock()
		values, found, err := s.read()
		s.mu.Unlock()
		if err != nil {
			s.log.Warn("dictionary reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if !found {
			s.log.Warn("dictionary file disappeared", zap.String("file", e.Name))
			return
		}
		onChange(values)
		s.log.Info("dictionary reloaded", zap.String("file", e.Name))
	})
	w.WatchConfig()
	s.watching = true
	return true
}

func decode(v *viper.Viper) (map[string]Entry, error) {
	var out dictValues
	if err := v.UnmarshalKey(OfferStatusDict, &out); err != nil {
		return nil, err
	}
	if len(out.Values) == 0 {
		return nil, errors.New(OfferStatusDict + " has no values")
	}
	// viper lower-cases keys; status codes are upper case.
	values := make(map[string]Entry, len(out.Values))
	for code, entry := range out.Values {
		values[strings.ToUpper(code)] = entry
	}
	return values, nil
}
