package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/vinizap/lumi-notes/domain"
)

// encodeTags renders tags as a compact JSON array. HTML escaping is disabled
// so the stored text matches what a LIKE pattern built by encodeTag expects.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tags); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// encodeTag renders one tag the way it appears inside an encoded tag array.
func encodeTag(tag string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(tag)
	return strings.TrimSuffix(buf.String(), "\n")
}

// decodeTags never fails: a NULL or malformed column reads as no tags.
func decodeTags(raw sql.NullString) []string {
	tags := []string{}
	if !raw.Valid || raw.String == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func encodeTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return domain.FormatTimestamp(*t)
}

// decodeTime reads an unparsable or NULL column as nil.
func decodeTime(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	t, err := domain.ParseTimestamp(raw.String)
	if err != nil {
		return nil
	}
	return &t
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
