package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/vinizap/lumi-notes/domain"
)

const noteColumns = "id, title, content, tags, start_time, end_time, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

// scanNote returns the note and the raw tags column, which search matches
// against as stored text.
func scanNote(row rowScanner) (*domain.Note, string, error) {
	var (
		n                            domain.Note
		tags                         sql.NullString
		start, end, created, updated sql.NullString
	)
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &tags, &start, &end, &created, &updated); err != nil {
		return nil, "", err
	}
	n.Tags = decodeTags(tags)
	n.StartTime = decodeTime(start)
	n.EndTime = decodeTime(end)
	n.CreatedAt = decodeTime(created)
	n.UpdatedAt = decodeTime(updated)
	return &n, tags.String, nil
}

// CreateNote validates in and inserts it. Both timestamps are set to now.
func (s *Store) CreateNote(ctx context.Context, in domain.NoteInput) (*domain.Note, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, domain.Validation("Invalid tags")
	}

	ts := domain.FormatTimestamp(s.now())
	var id int64
	err = s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO notes (title, content, tags, start_time, end_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), *in.Title, *in.Content, tags, encodeTime(in.StartTime), encodeTime(in.EndTime), ts, ts).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("error saving note: %w", classify(err))
	}

	return s.GetNote(ctx, id)
}

// GetNote returns a domain NotFound error when id does not exist.
func (s *Store) GetNote(ctx context.Context, id int64) (*domain.Note, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+noteColumns+` FROM notes WHERE id = ?`), id)
	n, _, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("Note not found")
	}
	if err != nil {
		return nil, fmt.Errorf("error finding note by ID: %w", classify(err))
	}
	return n, nil
}

// UpdateNote applies patch to the stored note. The merged time range is
// validated again and updated_at always moves forward.
func (s *Store) UpdateNote(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error) {
	n, err := s.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(n); err != nil {
		return nil, err
	}
	tags, err := encodeTags(n.Tags)
	if err != nil {
		return nil, domain.Validation("Invalid tags")
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	if n.UpdatedAt != nil && !now.After(*n.UpdatedAt) {
		now = n.UpdatedAt.Add(time.Microsecond)
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE notes SET title = ?, content = ?, tags = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?
	`), n.Title, n.Content, tags, encodeTime(n.StartTime), encodeTime(n.EndTime), domain.FormatTimestamp(now), id)
	if err != nil {
		return nil, fmt.Errorf("error saving note: %w", classify(err))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, domain.NotFound("Note not found")
	}

	return s.GetNote(ctx, id)
}

// DeleteNote reports whether a row was removed. A missing id is not an error.
func (s *Store) DeleteNote(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM notes WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("error deleting note: %w", classify(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListNotes returns every note, most recently updated first.
func (s *Store) ListNotes(ctx context.Context) ([]domain.Note, error) {
	notes, _, err := s.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY updated_at DESC, id DESC`)
	return notes, err
}

// SearchNotes matches q case-insensitively against the title, the content and
// the stored tags text. Because the tags are matched as JSON text, a query
// such as `"` matches every tagged note. An empty q matches nothing.
func (s *Store) SearchNotes(ctx context.Context, q string) ([]domain.Note, error) {
	if q == "" {
		return []domain.Note{}, nil
	}
	notes, raw, err := s.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(q)
	found := []domain.Note{}
	for i, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), needle) ||
			strings.Contains(strings.ToLower(n.Content), needle) ||
			strings.Contains(strings.ToLower(raw[i]), needle) {
			found = append(found, n)
		}
	}
	return found, nil
}

// NotesByTag returns the notes carrying exactly tag. The LIKE clause narrows
// the scan and the decoded tag list decides membership.
func (s *Store) NotesByTag(ctx context.Context, tag string) ([]domain.Note, error) {
	pattern := "%" + escapeLike(encodeTag(tag)) + "%"
	notes, _, err := s.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE tags LIKE ? ESCAPE '\'
		ORDER BY updated_at DESC, id DESC
	`, pattern)
	if err != nil {
		return nil, err
	}

	found := []domain.Note{}
	for _, n := range notes {
		if slices.Contains(n.Tags, tag) {
			found = append(found, n)
		}
	}
	return found, nil
}

// ListTags returns the sorted union of every note's tags.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM notes WHERE tags IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("error getting all tags: %w", classify(err))
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, tag := range decodeTags(raw) {
			seen[tag] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags, nil
}

func (s *Store) queryNotes(ctx context.Context, query string, args ...any) ([]domain.Note, []string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, nil, fmt.Errorf("error querying notes: %w", classify(err))
	}
	defer rows.Close()

	notes := []domain.Note{}
	var raw []string
	for rows.Next() {
		n, tags, err := scanNote(rows)
		if err != nil {
			return nil, nil, err
		}
		notes = append(notes, *n)
		raw = append(raw, tags)
	}
	return notes, raw, rows.Err()
}
