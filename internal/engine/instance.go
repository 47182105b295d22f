package engine

import (
	"time"

	"github.com/gcbaptista/what-can-i-cook/index"
	"github.com/gcbaptista/what-can-i-cook/services"
	"github.com/gcbaptista/what-can-i-cook/store"
)

// IndexInstance is the unit the engine publishes: one built index plus the
// provenance of the snapshot it was built from. It is never modified after creation.
type IndexInstance struct {
	index     *index.CorpusIndex
	source    string
	fetchedAt time.Time
	builtAt   time.Time
}

func newIndexInstance(snap *store.Snapshot) *IndexInstance {
	return &IndexInstance{
		index:     index.Build(snap.Recipes),
		source:    snap.Source,
		fetchedAt: snap.FetchedAt,
		builtAt:   time.Now().UTC(),
	}
}

// Stats describes the instance for the corpus endpoint.
func (i *IndexInstance) Stats() services.CorpusStats {
	return services.CorpusStats{
		BuildStats: i.index.Stats(),
		Source:     i.source,
		FetchedAt:  i.fetchedAt,
		BuiltAt:    i.builtAt,
	}
}
