package resolve

import (
	"sort"

	"github.com/hpungsan/rolodex/internal/person"
)

// dedupe collapses sightings of the same person (same dedup key: email
// when present, else normalized full name) into one candidate each. The
// surviving candidate is the sighting with the highest recency score;
// ties prefer a CRM-backed sighting, then the lexicographically smallest
// ID, so the result is stable for a fixed input regardless of source
// completion order. A linked contact ID known to any discarded sighting
// is carried onto the survivor. Output is sorted by score descending,
// then ID ascending.
func dedupe(candidates []person.Candidate) []person.Candidate {
	merged := make(map[string]person.Candidate, len(candidates))
	var keys []string

	for _, c := range candidates {
		key := c.DedupKey()
		cur, ok := merged[key]
		if !ok {
			merged[key] = c
			keys = append(keys, key)
			continue
		}

		winner, loser := pickWinner(cur, c)
		if winner.LinkedContactID == "" && loser.LinkedContactID != "" {
			winner.LinkedContactID = loser.LinkedContactID
		}
		merged[key] = winner
	}

	out := make([]person.Candidate, 0, len(keys))
	for _, key := range keys {
		out = append(out, merged[key])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RecencyScore != out[j].RecencyScore {
			return out[i].RecencyScore > out[j].RecencyScore
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// pickWinner decides which of two sightings with the same dedup key
// survives the merge.
func pickWinner(a, b person.Candidate) (winner, loser person.Candidate) {
	if a.RecencyScore != b.RecencyScore {
		if a.RecencyScore > b.RecencyScore {
			return a, b
		}
		return b, a
	}

	aCRM := a.SourceKind == person.SourceContact
	bCRM := b.SourceKind == person.SourceContact
	if aCRM != bCRM {
		if aCRM {
			return a, b
		}
		return b, a
	}

	if a.ID <= b.ID {
		return a, b
	}
	return b, a
}
