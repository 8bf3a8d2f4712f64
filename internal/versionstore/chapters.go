package versionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inkwell/internal/lineage"
	"inkwell/internal/services"
)

const chapterColumns = "id, chapter_id, title, source, source_kind, status, error_message, created_at, updated_at"

func scanChapter(scanner interface{ Scan(dest ...any) error }) (*lineage.Chapter, error) {
	var (
		id         int64
		chapterID  string
		title      string
		source     string
		sourceKind string
		statusStr  string
		errMessage string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &chapterID, &title, &source, &sourceKind, &statusStr, &errMessage, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	chapter := &lineage.Chapter{
		ID:           id,
		ChapterID:    chapterID,
		Title:        title,
		Source:       source,
		SourceKind:   lineage.SourceKind(sourceKind),
		Status:       lineage.Status(statusStr),
		ErrorMessage: errMessage,
	}
	chapter.CreatedAt = parseTimestamp(createdRaw)
	chapter.UpdatedAt = parseTimestamp(updatedRaw)
	return chapter, nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// NewChapter inserts a chapter row in the planned state. Re-registering a
// known chapter returns the existing row instead of an error so runs can be
// repeated against the same chapter ID.
func (s *Store) NewChapter(ctx context.Context, chapterID, title, src string, kind lineage.SourceKind) (*lineage.Chapter, error) {
	ctx = ensureContext(ctx)
	if existing, err := s.ChapterByID(ctx, chapterID); err == nil {
		return existing, nil
	} else if !errors.Is(err, services.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO chapters (chapter_id, title, source, source_kind, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		chapterID, title, src, string(kind), string(lineage.StatusPlanned), now, now,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "new chapter", chapterID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "new chapter", chapterID, err)
	}

	return &lineage.Chapter{
		ID:         id,
		ChapterID:  chapterID,
		Title:      title,
		Source:     src,
		SourceKind: kind,
		Status:     lineage.StatusPlanned,
		CreatedAt:  parseTimestamp(now),
		UpdatedAt:  parseTimestamp(now),
	}, nil
}

// ChapterByID retrieves a chapter row by its chapter ID.
func (s *Store) ChapterByID(ctx context.Context, chapterID string) (*lineage.Chapter, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM chapters WHERE chapter_id = ?", chapterColumns), chapterID)
	chapter, err := scanChapter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "store", "chapter lookup",
				fmt.Sprintf("chapter %q is not registered", chapterID), nil)
		}
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "chapter lookup", chapterID, err)
	}
	return chapter, nil
}

// UpdateChapter persists mutable chapter fields (title, source, status,
// error message) and refreshes the updated timestamp.
func (s *Store) UpdateChapter(ctx context.Context, chapter *lineage.Chapter) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE chapters
         SET title = ?, source = ?, source_kind = ?, status = ?, error_message = ?, updated_at = ?
         WHERE chapter_id = ?`,
		chapter.Title, chapter.Source, string(chapter.SourceKind),
		string(chapter.Status), chapter.ErrorMessage, now, chapter.ChapterID,
	)
	if err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "store", "update chapter", chapter.ChapterID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "store", "update chapter", chapter.ChapterID, err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "update chapter",
			fmt.Sprintf("chapter %q is not registered", chapter.ChapterID), nil)
	}
	chapter.UpdatedAt = parseTimestamp(now)
	return nil
}

// ListChapters returns all chapters ordered by creation time.
func (s *Store) ListChapters(ctx context.Context) ([]*lineage.Chapter, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM chapters ORDER BY created_at, id", chapterColumns))
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list chapters", "", err)
	}
	defer rows.Close()

	var chapters []*lineage.Chapter
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list chapters", "", err)
		}
		chapters = append(chapters, chapter)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list chapters", "", err)
	}
	return chapters, nil
}

// MarkForRedraft resets a chapter so the next run produces a fresh draft and
// review on top of the existing lineage. The chapter must already hold an
// original version.
func (s *Store) MarkForRedraft(ctx context.Context, chapterID string) error {
	ctx = ensureContext(ctx)
	chapter, err := s.ChapterByID(ctx, chapterID)
	if err != nil {
		return err
	}

	hasOriginal, err := s.hasStage(ctx, chapterID, lineage.StageOriginal)
	if err != nil {
		return err
	}
	if !hasOriginal {
		return services.Wrap(services.ErrValidation, "store", "mark redraft",
			fmt.Sprintf("chapter %q has no original version to redraft from", chapterID), nil)
	}

	hasFinal, err := s.hasStage(ctx, chapterID, lineage.StageFinal)
	if err != nil {
		return err
	}
	if hasFinal {
		return services.Wrap(services.ErrValidation, "store", "mark redraft",
			fmt.Sprintf("chapter %q already has a final version", chapterID), nil)
	}

	chapter.Status = lineage.StatusFetched
	chapter.ErrorMessage = ""
	return s.UpdateChapter(ctx, chapter)
}

// Stats summarizes chapter counts by lifecycle status.
type Stats struct {
	Total    int
	ByStatus map[lineage.Status]int
	Versions int
	Indexed  int
}

// Stats reports chapter and version counts for status displays.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{ByStatus: make(map[lineage.Status]int)}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM chapters GROUP BY status")
	if err != nil {
		return Stats{}, services.Wrap(services.ErrStoreUnavailable, "store", "stats", "", err)
	}
	defer rows.Close()
	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return Stats{}, services.Wrap(services.ErrStoreUnavailable, "store", "stats", "", err)
		}
		stats.ByStatus[lineage.Status(statusStr)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, services.Wrap(services.ErrStoreUnavailable, "store", "stats", "", err)
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM versions").Scan(&stats.Versions); err != nil {
		return Stats{}, services.Wrap(services.ErrStoreUnavailable, "store", "stats", "", err)
	}
	stats.Indexed = s.vectors.Count()
	return stats, nil
}
