package metrics

import (
	"sort"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

// SessionIndex maps session_id to the owning session. Built once per run and
// shared read-only by every analyzer that needs to attribute events to users.
type SessionIndex struct {
	byID map[string]eventstore.Session
}

// NewIndex builds the session lookup. A duplicated session_id keeps the first row.
func NewIndex(sessions []eventstore.Session) *SessionIndex {
	idx := &SessionIndex{byID: make(map[string]eventstore.Session, len(sessions))}
	for _, s := range sessions {
		if _, ok := idx.byID[s.ID]; ok {
			continue
		}
		idx.byID[s.ID] = s
	}
	return idx
}

// User returns the user owning sessionID.
func (i *SessionIndex) User(sessionID string) (string, bool) {
	s, ok := i.byID[sessionID]
	if !ok {
		return "", false
	}
	return s.UserID, true
}

// Session returns the full session row for sessionID.
func (i *SessionIndex) Session(sessionID string) (eventstore.Session, bool) {
	s, ok := i.byID[sessionID]
	return s, ok
}

// Len is the number of distinct sessions indexed.
func (i *SessionIndex) Len() int { return len(i.byID) }

// UserFeature is a usage event attributed to a user.
type UserFeature struct {
	UserID  string
	Feature string
}

// JoinUsage attributes usage events to users through their session. Events
// whose session is unknown are dropped and counted rather than failing the run.
func JoinUsage(idx *SessionIndex, events []eventstore.FeatureUsageEvent) (joined []UserFeature, dropped int) {
	joined = make([]UserFeature, 0, len(events))
	for _, ev := range events {
		uid, ok := idx.User(ev.SessionID)
		if !ok {
			dropped++
			continue
		}
		joined = append(joined, UserFeature{UserID: uid, Feature: ev.Feature})
	}
	return joined, dropped
}

// featureUsers groups joined usage into deduplicated user sets per feature.
func featureUsers(joined []UserFeature) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	for _, uf := range joined {
		set := out[uf.Feature]
		if set == nil {
			set = make(map[string]struct{})
			out[uf.Feature] = set
		}
		set[uf.UserID] = struct{}{}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
