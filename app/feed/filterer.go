package feed

import (
	"github.com/lysyi3m/cfa-cal/app/database"
	"github.com/lysyi3m/cfa-cal/app/venue"
)

type Filterer struct {
	resolver venue.Resolver
}

func NewFilterer(resolver venue.Resolver) *Filterer {
	return &Filterer{resolver: resolver}
}

// Run resolves every event's venue text and keeps those the filter accepts.
func (f *Filterer) Run(events []database.Event, filter Filter) []Entry {
	entries := make([]Entry, 0, len(events))
	for _, event := range events {
		match := f.resolver.Resolve(event.Venue)
		if !filter.Matches(match) {
			continue
		}
		entries = append(entries, Entry{Event: event, Venue: match})
	}
	return entries
}
