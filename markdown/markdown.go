// Package markdown converts notes to and from Markdown files with a YAML
// frontmatter header.
package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vinizap/lumi-notes/domain"
)

type frontmatter struct {
	ID        int64    `yaml:"id,omitempty"`
	Title     string   `yaml:"title"`
	Tags      []string `yaml:"tags"`
	StartTime string   `yaml:"start_time,omitempty"`
	EndTime   string   `yaml:"end_time,omitempty"`
	CreatedAt string   `yaml:"created_at,omitempty"`
	UpdatedAt string   `yaml:"updated_at,omitempty"`
}

// Encode renders n as frontmatter followed by its content.
func Encode(n *domain.Note) ([]byte, error) {
	fm := frontmatter{
		ID:        n.ID,
		Title:     n.Title,
		Tags:      n.Tags,
		StartTime: format(n.StartTime),
		EndTime:   format(n.EndTime),
		CreatedAt: format(n.CreatedAt),
		UpdatedAt: format(n.UpdatedAt),
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(fm); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	encoder.Close()

	buf.WriteString("---\n\n")
	buf.WriteString(n.Content)
	return buf.Bytes(), nil
}

// Decode reads a Markdown document into a note input. A document without
// frontmatter is imported as content only, titled after its first heading.
// Ids and server timestamps in the header are ignored.
func Decode(data []byte) (domain.NoteInput, error) {
	var in domain.NoteInput

	text := strings.TrimPrefix(string(data), "\ufeff")
	first, rest, _ := strings.Cut(text, "\n")
	if !isDelimiter(first) {
		content := strings.TrimSpace(text)
		title := titleFromHeading(content)
		in.Title, in.Content = &title, &content
		return in, nil
	}

	header, body, ok := splitHeader(rest)
	if !ok {
		return in, domain.Validation("Invalid frontmatter format")
	}

	var fm frontmatter
	err := yaml.Unmarshal([]byte(header), &fm)
	if err != nil {
		return in, domain.Validation(fmt.Sprintf("Failed to parse frontmatter: %v", err))
	}

	content := strings.TrimSpace(body)
	title := fm.Title
	if title == "" {
		title = titleFromHeading(content)
	}

	in.Title = &title
	in.Content = &content
	in.Tags = fm.Tags
	if in.StartTime, err = parse("start_time", fm.StartTime); err != nil {
		return in, err
	}
	if in.EndTime, err = parse("end_time", fm.EndTime); err != nil {
		return in, err
	}
	return in, in.Validate()
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, "\r") == "---"
}

// splitHeader finds the line that closes the frontmatter. Only a line holding
// nothing but "---" counts, so dashes inside values are left alone.
func splitHeader(rest string) (header, body string, ok bool) {
	n := 0
	for _, line := range strings.SplitAfter(rest, "\n") {
		if isDelimiter(strings.TrimSuffix(line, "\n")) {
			return rest[:n], rest[n+len(line):], true
		}
		n += len(line)
	}
	return "", "", false
}

func titleFromHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return "Untitled"
}

func format(t *time.Time) string {
	if t == nil {
		return ""
	}
	return domain.FormatTimestamp(*t)
}

func parse(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := domain.ParseTimestamp(s)
	if err != nil {
		return nil, domain.Validation(fmt.Sprintf("Invalid %s: %s", field, s))
	}
	return &t, nil
}
