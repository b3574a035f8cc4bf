// Package assistant turns note text into summaries, tags, rewrites, answers,
// search suggestions, structured drafts and translations by way of a hosted
// chat completion model. Replies are untrusted text: every operation degrades
// to a deterministic fallback instead of failing the caller.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/vinizap/lumi-notes/domain"
)

const (
	searchContextNotes = 20
	previewRunes       = 100
)

// NoteReader is the part of the note store the assistant reads from.
type NoteReader interface {
	GetNote(ctx context.Context, id int64) (*domain.Note, error)
	ListNotes(ctx context.Context) ([]domain.Note, error)
}

type Assistant struct {
	client Completer
	notes  NoteReader
	now    func() time.Time
}

func New(client Completer, notes NoteReader) *Assistant {
	return &Assistant{client: client, notes: notes, now: time.Now}
}

// complete runs one request and converts an upstream failure into the
// "Error: ..." text free-text endpoints report.
func (a *Assistant) complete(ctx context.Context, req Request) Result[string] {
	reply, err := a.client.Complete(ctx, req)
	if err != nil {
		return fallback("Error: "+err.Error(), err)
	}
	return textResult(reply)
}

func (a *Assistant) Summarize(ctx context.Context, content string) Result[string] {
	return a.complete(ctx, Request{
		System:      summarizeSystem,
		Prompt:      summarizePrompt(strings.TrimSpace(content)),
		Temperature: 0.3,
		MaxTokens:   200,
	})
}

// GenerateTags suggests up to five tags. A failed call yields no tags.
func (a *Assistant) GenerateTags(ctx context.Context, title, content string) Result[[]string] {
	reply, err := a.client.Complete(ctx, Request{
		System:      tagsSystem,
		Prompt:      tagsPrompt(strings.TrimSpace(title), strings.TrimSpace(content)),
		Temperature: 0.5,
		MaxTokens:   100,
	})
	if err != nil {
		return fallback([]string{}, err)
	}
	return parsed(parseTags(reply))
}

func (a *Assistant) ImproveContent(ctx context.Context, content, kind string) Result[string] {
	return a.complete(ctx, Request{
		System:      improveSystem,
		Prompt:      improvePrompt(kind, strings.TrimSpace(content)),
		Temperature: 0.3,
		MaxTokens:   1500,
	})
}

// Chat answers question, using the note with noteID as context when it exists.
// A note that cannot be loaded is left out of the prompt.
func (a *Assistant) Chat(ctx context.Context, question string, noteID *int64) Result[string] {
	var noteContext string
	if noteID != nil && *noteID != 0 {
		note, err := a.notes.GetNote(ctx, *noteID)
		switch {
		case err == nil:
			noteContext = fmt.Sprintf("Note Title: %s\nNote Content: %s\n\n", note.Title, note.Content)
		case !domain.IsNotFound(err):
			log.Warn().Err(err).Int64("note_id", *noteID).Msg("chat context unavailable")
		}
	}

	return a.complete(ctx, Request{
		System:      chatSystem,
		Prompt:      chatPrompt(noteContext, strings.TrimSpace(question)),
		Temperature: 0.7,
		MaxTokens:   800,
	})
}

// SearchAssist suggests up to five search terms for query based on the
// titles and previews of the most recent notes. With no notes the model is
// not called. An upstream failure comes back as its "Error: ..." text. Only a
// store failure is returned as an error.
func (a *Assistant) SearchAssist(ctx context.Context, query string) (Result[[]string], error) {
	notes, err := a.notes.ListNotes(ctx)
	if err != nil {
		return Result[[]string]{}, err
	}
	if len(notes) == 0 {
		return parsed([]string{}), nil
	}

	reply, err := a.client.Complete(ctx, Request{
		System:      searchSystem,
		Prompt:      searchPrompt(searchContext(notes), strings.TrimSpace(query)),
		Temperature: 0.3,
		MaxTokens:   300,
	})
	if err != nil {
		// The failure text goes through the same splitting as a prose reply so
		// the caller still sees why there are no real suggestions.
		suggestions, _ := parseSuggestions("Error: " + err.Error())
		return fallback(suggestions, err), nil
	}

	suggestions, ok := parseSuggestions(reply)
	if !ok {
		return fallback(suggestions, errNotJSON), nil
	}
	return parsed(suggestions), nil
}

func searchContext(notes []domain.Note) string {
	lines := make([]string, 0, min(len(notes), searchContextNotes))
	for _, n := range notes[:min(len(notes), searchContextNotes)] {
		preview := n.Content
		if utf8.RuneCountInString(preview) > previewRunes {
			preview = truncateRunes(preview, previewRunes) + "..."
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", n.Title, preview))
	}
	return strings.Join(lines, "\n")
}

// SmartCreate asks the model to turn free text into a note draft. When the
// reply holds no usable object the draft is built from the input itself.
func (a *Assistant) SmartCreate(ctx context.Context, text string) Result[Draft] {
	text = strings.TrimSpace(text)
	reply, err := a.client.Complete(ctx, Request{
		System:      smartCreateSystem,
		Prompt:      smartCreatePrompt(NewDateContext(a.now()), text),
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return fallback(fallbackDraft(text), err)
	}

	draft, err := parseDraft(reply, text)
	if err != nil {
		return fallback(draft, err)
	}
	return parsed(draft)
}

// Language resolves a target_language value, defaulting to English.
func Language(target string) string {
	if name, ok := languages[strings.ToLower(strings.TrimSpace(target))]; ok {
		return name
	}
	return languages["english"]
}

// Translate translates a note. On failure the original text comes back with
// Error set.
func (a *Assistant) Translate(ctx context.Context, title, content, target string) Result[Translation] {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	language := Language(target)

	reply, err := a.client.Complete(ctx, Request{
		System:      translateSystem(language),
		Prompt:      translatePrompt(language, title, content),
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return fallback(Translation{Title: title, Content: content, TargetLanguage: language, Error: translationFailed}, err)
	}

	tr, err := parseTranslation(reply, title, content, language)
	if err != nil {
		return fallback(tr, err)
	}
	return parsed(tr)
}
