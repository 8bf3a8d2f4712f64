package versionstore

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"inkwell/internal/lineage"
	"inkwell/internal/services"
)

// DefaultSearchLimit caps result counts when the caller does not specify one.
const DefaultSearchLimit = 5

// Match pairs a stored version with its similarity to a search query.
type Match struct {
	Version    *lineage.Version
	Similarity float32
}

// Search finds stored versions semantically similar to the query text.
// Results are ordered by similarity, ties broken by lower sequence number,
// then chapter ID so repeated searches return a stable order. The limit is
// clamped to the number of indexed versions.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(query) == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "search", "query text required", nil)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	indexed := s.vectors.Count()
	if indexed == 0 {
		return nil, nil
	}
	if limit > indexed {
		limit = indexed
	}

	// An index entry can outlive its lineage row. When one turns up in the
	// candidate set, widen the query so valid versions still fill the limit.
	matches := make([]Match, 0, limit)
	candidates := limit
	for {
		results, err := s.vectors.Query(ctx, query, candidates, nil, nil)
		if err != nil {
			return nil, services.Wrap(services.ErrStoreUnavailable, "store", "search", "", err)
		}

		matches = matches[:0]
		orphans := 0
		for _, result := range results {
			chapterID := result.Metadata["chapter_id"]
			sequence, convErr := strconv.Atoi(result.Metadata["sequence"])
			if chapterID == "" || convErr != nil {
				return nil, services.Wrap(services.ErrStoreUnavailable, "store", "search",
					"index entry "+result.ID+" has malformed metadata", convErr)
			}
			version, err := s.VersionBySequence(ctx, chapterID, sequence)
			if err != nil {
				if errors.Is(err, services.ErrNotFound) {
					orphans++
					continue
				}
				return nil, err
			}
			matches = append(matches, Match{Version: version, Similarity: result.Similarity})
		}
		if orphans == 0 || candidates >= indexed {
			break
		}
		candidates += orphans
		if candidates > indexed {
			candidates = indexed
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].Version.Sequence != matches[j].Version.Sequence {
			return matches[i].Version.Sequence < matches[j].Version.Sequence
		}
		return matches[i].Version.ChapterID < matches[j].Version.ChapterID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
