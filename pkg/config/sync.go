package config

import (
	"log/slog"

	"github.com/pharos-sh/pharos/pkg/logbuf"
	"github.com/pharos-sh/pharos/pkg/notify"
)

// Sync applies configuration changes across the registry and the
// notification model in one pass, so the two never disagree about
// capacity or highlighting.
type Sync struct {
	Registry *logbuf.Registry
	Model    *notify.Model
	Logger   *slog.Logger
}

// Apply pushes capacity and highlighting into every collaborator.
// A non-positive capacity is a rejected input: the capacity portion is
// skipped as a whole and previous values stay untouched. Highlighting
// is always applied (its visible effect is deferred while a display
// surface is open, which the model handles).
func (s *Sync) Apply(capacity int, highlighting bool) {
	if capacity > 0 {
		s.Registry.SetDefaultCapacity(capacity)
		for source := range s.Registry.Sources() {
			s.Registry.Buffer(source).SetCapacity(capacity)
		}
		s.Model.SetCapacity(capacity)
	} else if s.Logger != nil {
		s.Logger.Warn("rejected capacity", "capacity", capacity)
	}

	s.Model.SetHighlighting(highlighting)
}
