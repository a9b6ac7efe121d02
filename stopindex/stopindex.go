// Package stopindex resolves free-text stop names to catalogue stops.
// The index is built once over the merged catalogue and is read-only
// afterwards.
package stopindex

import (
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/tidwall/rtree"

	"victransit.dev/transit/model"
)

// DefaultMinScore is the fuzzy-match cutoff applied when the caller
// passes a non-positive minScore.
const DefaultMinScore = 60

// Match is one fuzzy-lookup candidate.
type Match struct {
	StopID string
	Name   string
	Score  int
}

// NearbyStop is one spatial-lookup result.
type NearbyStop struct {
	Stop     *model.Stop
	Distance float64 // meters
}

type entry struct {
	stopID string
	name   string
	tokens string // lowercased, fields sorted, space-joined
}

type Index struct {
	byName  map[string][]string // folded name -> stop ids
	entries []entry
	tree    rtree.RTree
}

// New builds the index. Stop names need not be unique; all ids sharing
// a name are kept.
func New(stops []*model.Stop) *Index {
	idx := &Index{byName: map[string][]string{}}
	for _, s := range stops {
		key := fold(s.Name)
		idx.byName[key] = append(idx.byName[key], s.ID)
		idx.entries = append(idx.entries, entry{
			stopID: s.ID,
			name:   s.Name,
			tokens: tokenSort(s.Name),
		})
		idx.tree.Insert(
			[2]float64{s.Lat, s.Lon},
			[2]float64{s.Lat, s.Lon},
			s,
		)
	}
	for _, ids := range idx.byName {
		sort.Strings(ids)
	}
	return idx
}

// LookupExact returns the ids of every stop whose name matches the
// query, ignoring case and surrounding whitespace.
func (idx *Index) LookupExact(name string) []string {
	return idx.byName[fold(name)]
}

// LookupFuzzy scores every stop name against the query with a
// token-sort similarity in [0,100] and returns up to limit matches at
// or above minScore, best first, ties broken by name.
func (idx *Index) LookupFuzzy(query string, limit, minScore int) []Match {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	// Bigram similarity keeps "Waurn Ponds" close to "Waurn Ponds
	// Station"; edit distance punishes the length gap too hard.
	dice := metrics.NewSorensenDice()
	q := tokenSort(query)

	var matches []Match
	for _, e := range idx.entries {
		score := int(math.Round(100 * strutil.Similarity(q, e.tokens, dice)))
		if score < minScore {
			continue
		}
		matches = append(matches, Match{StopID: e.stopID, Name: e.name, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].StopID < matches[j].StopID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Nearby returns up to limit stops ordered by distance from the given
// point. The r-tree search uses a bounding box around the point; the
// box is widened until enough candidates are found or it covers ~50km.
func (idx *Index) Nearby(lat, lon float64, limit int) []NearbyStop {
	if limit <= 0 {
		limit = 10
	}

	var candidates []*model.Stop
	for delta := 0.01; delta <= 0.5; delta *= 2 {
		candidates = candidates[:0]
		idx.tree.Search(
			[2]float64{lat - delta, lon - delta},
			[2]float64{lat + delta, lon + delta},
			func(min, max [2]float64, data interface{}) bool {
				candidates = append(candidates, data.(*model.Stop))
				return true
			},
		)
		if len(candidates) >= limit {
			break
		}
	}

	out := make([]NearbyStop, 0, len(candidates))
	for _, s := range candidates {
		out = append(out, NearbyStop{Stop: s, Distance: haversine(lat, lon, s.Lat, s.Lon)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Stop.ID < out[j].Stop.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// tokenSort normalises a name so word order stops mattering:
// "Station Geelong Railway" and "Geelong Railway Station" compare
// equal.
func tokenSort(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

const earthRadiusMeters = 6371000

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
