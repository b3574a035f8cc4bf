package domain

import "time"

type Note struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// NoteInput carries the fields of a note to be created. Title and Content are
// pointers so that a missing field can be told apart from an empty one.
type NoteInput struct {
	Title     *string
	Content   *string
	Tags      []string
	StartTime *time.Time
	EndTime   *time.Time
}

func (in NoteInput) Validate() error {
	if in.Title == nil || in.Content == nil {
		return Validation("Title and content are required")
	}
	return ValidateRange(in.StartTime, in.EndTime)
}

// NotePatch is a partial update. Only fields with Set == true are applied.
type NotePatch struct {
	Title     Nullable[string]
	Content   Nullable[string]
	Tags      Nullable[[]string]
	StartTime Nullable[time.Time]
	EndTime   Nullable[time.Time]
}

// Apply merges the patch into n and validates the result.
func (p NotePatch) Apply(n *Note) error {
	if p.Title.Set {
		if p.Title.Value == nil {
			return Validation("Title cannot be null")
		}
		n.Title = *p.Title.Value
	}
	if p.Content.Set {
		if p.Content.Value == nil {
			return Validation("Content cannot be null")
		}
		n.Content = *p.Content.Value
	}
	if p.Tags.Set {
		n.Tags = nil
		if p.Tags.Value != nil {
			n.Tags = *p.Tags.Value
		}
	}
	if p.StartTime.Set {
		n.StartTime = p.StartTime.Value
	}
	if p.EndTime.Set {
		n.EndTime = p.EndTime.Value
	}
	return ValidateRange(n.StartTime, n.EndTime)
}

// ValidateRange rejects a time range whose start is not strictly before its end.
func ValidateRange(start, end *time.Time) error {
	if start != nil && end != nil && !start.Before(*end) {
		return Validation("Start time must be before end time")
	}
	return nil
}
