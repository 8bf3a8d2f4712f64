package versionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/philippgille/chromem-go"

	"inkwell/internal/lineage"
	"inkwell/internal/services"
)

const versionColumns = "id, chapter_id, stage, sequence, text, source, metadata_json, created_at"

func scanVersion(scanner interface{ Scan(dest ...any) error }) (*lineage.Version, error) {
	var (
		id          int64
		chapterID   string
		stageStr    string
		sequence    int
		text        string
		source      string
		metadataRaw string
		createdRaw  string
	)
	if err := scanner.Scan(&id, &chapterID, &stageStr, &sequence, &text, &source, &metadataRaw, &createdRaw); err != nil {
		return nil, err
	}

	version := &lineage.Version{
		ID:        id,
		ChapterID: chapterID,
		Stage:     lineage.Stage(stageStr),
		Sequence:  sequence,
		Text:      text,
		Source:    source,
		CreatedAt: parseTimestamp(createdRaw),
	}
	if metadataRaw != "" && metadataRaw != "{}" {
		metadata := make(map[string]string)
		if err := json.Unmarshal([]byte(metadataRaw), &metadata); err == nil {
			version.Metadata = metadata
		}
	}
	return version, nil
}

func indexDocID(chapterID string, sequence int) string {
	return fmt.Sprintf("%s#%d", chapterID, sequence)
}

// Put stores a new immutable version for a chapter. The store assigns the
// sequence number inside a transaction, so sequences strictly increase per
// chapter even under concurrent writers. The stored version is also indexed
// for similarity search; an indexing failure rolls the row back so lineage
// and index never diverge.
func (s *Store) Put(ctx context.Context, version *lineage.Version) (*lineage.Version, error) {
	ctx = ensureContext(ctx)
	if version == nil {
		return nil, services.Wrap(services.ErrValidation, "store", "put version", "version required", nil)
	}
	stage, ok := lineage.ParseStage(string(version.Stage))
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "store", "put version",
			fmt.Sprintf("unknown stage %q", version.Stage), nil)
	}
	if version.Text == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "put version", "version text is empty", nil)
	}

	metadataJSON := "{}"
	if len(version.Metadata) > 0 {
		encoded, err := json.Marshal(version.Metadata)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "store", "put version", "encode metadata", err)
		}
		metadataJSON = string(encoded)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	stored := *version
	stored.Stage = stage
	stored.CreatedAt = parseTimestamp(now)

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var chapterExists int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM chapters WHERE chapter_id = ?", version.ChapterID,
		).Scan(&chapterExists); err != nil {
			return err
		}
		if chapterExists == 0 {
			return services.Wrap(services.ErrNotFound, "store", "put version",
				fmt.Sprintf("chapter %q is not registered", version.ChapterID), nil)
		}

		if stage == lineage.StageFinal {
			if err := checkFinalAllowed(ctx, tx, version.ChapterID); err != nil {
				return err
			}
		}

		var maxSeq sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			"SELECT MAX(sequence) FROM versions WHERE chapter_id = ?", version.ChapterID,
		).Scan(&maxSeq); err != nil {
			return err
		}
		stored.Sequence = int(maxSeq.Int64) + 1

		res, err := tx.ExecContext(ctx,
			`INSERT INTO versions (chapter_id, stage, sequence, text, source, metadata_json, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			stored.ChapterID, string(stage), stored.Sequence, stored.Text, stored.Source, metadataJSON, now,
		)
		if err != nil {
			return err
		}
		if stored.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrValidation) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "put version", stored.ChapterID, err)
	}

	if err := s.indexVersion(ctx, &stored); err != nil {
		// Lineage and index must agree, so roll the row back.
		if _, delErr := s.execWithRetry(ctx, "DELETE FROM versions WHERE id = ?", stored.ID); delErr != nil {
			return nil, services.Wrap(services.ErrStoreUnavailable, "store", "put version",
				"index failed and rollback failed", errors.Join(err, delErr))
		}
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "put version", "index version", err)
	}

	return &stored, nil
}

// checkFinalAllowed enforces the finalization rules: at most one final
// version per chapter, and never without an AI draft in the lineage.
func checkFinalAllowed(ctx context.Context, tx *sql.Tx, chapterID string) error {
	var finals int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM versions WHERE chapter_id = ? AND stage = ?",
		chapterID, string(lineage.StageFinal),
	).Scan(&finals); err != nil {
		return err
	}
	if finals > 0 {
		return services.Wrap(services.ErrValidation, "store", "put version",
			fmt.Sprintf("chapter %q already has a final version", chapterID), nil)
	}

	var drafts int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM versions WHERE chapter_id = ? AND stage = ?",
		chapterID, string(lineage.StageAIDraft),
	).Scan(&drafts); err != nil {
		return err
	}
	if drafts == 0 {
		return services.Wrap(services.ErrValidation, "store", "put version",
			fmt.Sprintf("chapter %q cannot be finalized without an AI draft", chapterID), nil)
	}
	return nil
}

func (s *Store) indexVersion(ctx context.Context, version *lineage.Version) error {
	return s.vectors.AddDocument(ctx, chromem.Document{
		ID: indexDocID(version.ChapterID, version.Sequence),
		Metadata: map[string]string{
			"chapter_id": version.ChapterID,
			"stage":      string(version.Stage),
			"sequence":   strconv.Itoa(version.Sequence),
		},
		Content: version.Text,
	})
}

// Versions returns every stored version for a chapter in sequence order.
func (s *Store) Versions(ctx context.Context, chapterID string) ([]*lineage.Version, error) {
	return s.queryVersions(ctx,
		fmt.Sprintf("SELECT %s FROM versions WHERE chapter_id = ? ORDER BY sequence", versionColumns),
		chapterID)
}

// VersionsByStage returns a chapter's versions for one stage in sequence order.
func (s *Store) VersionsByStage(ctx context.Context, chapterID string, stage lineage.Stage) ([]*lineage.Version, error) {
	return s.queryVersions(ctx,
		fmt.Sprintf("SELECT %s FROM versions WHERE chapter_id = ? AND stage = ? ORDER BY sequence", versionColumns),
		chapterID, string(stage))
}

// LatestByStage returns the newest version of a chapter for one stage, or a
// not-found error when the stage has never been stored.
func (s *Store) LatestByStage(ctx context.Context, chapterID string, stage lineage.Stage) (*lineage.Version, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM versions WHERE chapter_id = ? AND stage = ? ORDER BY sequence DESC LIMIT 1", versionColumns),
		chapterID, string(stage))
	version, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "store", "version lookup",
				fmt.Sprintf("chapter %q has no %s version", chapterID, stage), nil)
		}
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "version lookup", chapterID, err)
	}
	return version, nil
}

// VersionBySequence returns one version of a chapter by its sequence number.
func (s *Store) VersionBySequence(ctx context.Context, chapterID string, sequence int) (*lineage.Version, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM versions WHERE chapter_id = ? AND sequence = ?", versionColumns),
		chapterID, sequence)
	version, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "store", "version lookup",
				fmt.Sprintf("chapter %q has no version %d", chapterID, sequence), nil)
		}
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "version lookup", chapterID, err)
	}
	return version, nil
}

func (s *Store) queryVersions(ctx context.Context, query string, args ...any) ([]*lineage.Version, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list versions", "", err)
	}
	defer rows.Close()

	var versions []*lineage.Version
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list versions", "", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "store", "list versions", "", err)
	}
	return versions, nil
}

func (s *Store) hasStage(ctx context.Context, chapterID string, stage lineage.Stage) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM versions WHERE chapter_id = ? AND stage = ?",
		chapterID, string(stage),
	).Scan(&count)
	if err != nil {
		return false, services.Wrap(services.ErrStoreUnavailable, "store", "version lookup", chapterID, err)
	}
	return count > 0, nil
}
