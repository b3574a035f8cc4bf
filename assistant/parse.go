package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vinizap/lumi-notes/domain"
)

const (
	maxTags        = 5
	maxSuggestions = 5
	maxTitleRunes  = 50
)

var (
	errNoObject = errors.New("no JSON object in reply")
	errNotJSON  = errors.New("reply is not JSON")
)

// parseTags splits a comma separated reply, dropping empty entries.
func parseTags(reply string) []string {
	tags := []string{}
	for _, part := range strings.Split(reply, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

// parseSuggestions reads the reply as a JSON array. A JSON value that is not
// an array becomes a single suggestion; anything else is split on commas and
// newlines. The bool reports whether the reply was valid JSON.
func parseSuggestions(reply string) ([]string, bool) {
	var v any
	dec := json.NewDecoder(strings.NewReader(reply))
	dec.UseNumber()
	if err := dec.Decode(&v); err == nil && !dec.More() {
		items, ok := v.([]any)
		if !ok {
			return []string{reply}, true
		}
		out := make([]string, 0, min(len(items), maxSuggestions))
		for _, item := range items[:min(len(items), maxSuggestions)] {
			out = append(out, stringify(item))
		}
		return out, true
	}

	out := []string{}
	for _, part := range strings.Split(strings.ReplaceAll(reply, "\n", ","), ",") {
		s := strings.Trim(strings.TrimSpace(part), `"'`)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out, false
}

// firstObject decodes the first JSON object embedded in reply, skipping any
// prose before or after it.
func firstObject(reply string) (map[string]any, error) {
	for i := strings.IndexByte(reply, '{'); i >= 0; {
		var m map[string]any
		dec := json.NewDecoder(strings.NewReader(reply[i:]))
		dec.UseNumber()
		if err := dec.Decode(&m); err == nil {
			return m, nil
		}
		next := strings.IndexByte(reply[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, errNoObject
}

// stringField returns m[key] as trimmed text, or def when the key is missing
// or null.
func stringField(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return strings.TrimSpace(def)
	}
	return strings.TrimSpace(stringify(v))
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// timeField keeps the original text of a timestamp the store would accept and
// drops anything else.
func timeField(m map[string]any, key string) *string {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return nil
	}
	if _, err := domain.ParseTimestamp(s); err != nil {
		return nil
	}
	return &s
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Draft is a note proposed by SmartCreate. Times are kept as the text the
// model produced.
type Draft struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

func parseDraft(reply, input string) (Draft, error) {
	m, err := firstObject(reply)
	if err != nil {
		return fallbackDraft(input), err
	}
	return Draft{
		Title:     truncateRunes(stringField(m, "title", "Untitled"), maxTitleRunes),
		Content:   stringField(m, "content", input),
		StartTime: timeField(m, "start_time"),
		EndTime:   timeField(m, "end_time"),
	}, nil
}

func fallbackDraft(input string) Draft {
	title := input
	if utf8.RuneCountInString(input) > maxTitleRunes {
		title = truncateRunes(input, maxTitleRunes) + "..."
	}
	return Draft{Title: title, Content: input}
}

// Translation is the result of Translate. Error is only set when the reply
// could not be used and the original text is returned.
type Translation struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	TargetLanguage string `json:"target_language"`
	Error          string `json:"error,omitempty"`
}

const translationFailed = "Translation parsing failed, returned original text"

func parseTranslation(reply, title, content, language string) (Translation, error) {
	m, err := firstObject(reply)
	if err != nil {
		return Translation{Title: title, Content: content, TargetLanguage: language, Error: translationFailed}, err
	}
	return Translation{
		Title:          stringField(m, "title", title),
		Content:        stringField(m, "content", content),
		TargetLanguage: language,
	}, nil
}
