package assistant

import "fmt"

const (
	summarizeSystem = "You are a helpful assistant that creates clear, concise summaries of text content. Keep summaries under 100 words and focus on the main points."

	tagsSystem = "You are a helpful assistant that generates relevant, concise tags for text content. Return only the tags separated by commas, with no additional text or explanations."

	improveSystem = "You are a helpful writing assistant. Improve the given text while maintaining the original meaning and tone. Return only the improved text without explanations."

	chatSystem = "You are a helpful assistant that can answer questions about notes and provide insights. Be concise and helpful in your responses."

	searchSystem = "You are a search assistant. Analyze the user's query and available notes to suggest relevant search terms. Return only a JSON array of suggested search terms, no explanations."

	smartCreateSystem = `You are an expert at parsing natural language text to extract structured note information.
        Focus on identifying:
        1. A clear, concise title that summarizes the main topic
        2. The detailed content/description
        3. Any mentioned dates and times (convert to ISO format)

        Always return valid JSON format only.`
)

// Improvement kinds accepted by ImproveContent. Anything else is treated as
// ImproveGeneral.
const (
	ImproveGeneral = "general"
	ImproveGrammar = "grammar"
	ImproveClarity = "clarity"
	ImproveExpand  = "expand"
)

var improvePrompts = map[string]string{
	ImproveGeneral: "Please improve the following text by making it clearer, more organized, and easier to read:",
	ImproveGrammar: "Please correct any grammar, spelling, and punctuation errors in the following text:",
	ImproveClarity: "Please rewrite the following text to make it clearer and more concise:",
	ImproveExpand:  "Please expand on the following text by adding more detail and explanation:",
}

// languages maps the accepted target_language values onto the name used in
// prompts and responses.
var languages = map[string]string{
	"english":  "English",
	"chinese":  "Chinese (Simplified)",
	"japanese": "Japanese",
}

func summarizePrompt(content string) string {
	return "Please provide a concise summary of the following text:\n\n" + content
}

func tagsPrompt(title, content string) string {
	text := content
	if title != "" {
		text = fmt.Sprintf("Title: %s\n\nContent: %s", title, content)
	}
	return "Based on the following text, suggest 3-5 relevant tags that would help categorize and find this note. Return only the tags separated by commas, no explanations:\n\n" + text
}

func improvePrompt(kind, content string) string {
	prompt, ok := improvePrompts[kind]
	if !ok {
		prompt = improvePrompts[ImproveGeneral]
	}
	return prompt + "\n\n" + content
}

func chatPrompt(noteContext, question string) string {
	return noteContext + "Question: " + question
}

func searchPrompt(notes, query string) string {
	return fmt.Sprintf("Available notes:\n%s\n\nUser search query: '%s'\n\nBased on the available notes, suggest the most relevant search terms or note titles that match the user's query. Return as a JSON array of strings.", notes, query)
}

func smartCreatePrompt(dc DateContext, text string) string {
	return fmt.Sprintf(`%s

Please analyze the following text and extract structured information for a note.

Text to analyze: "%s"

Extract and return ONLY a JSON object with these fields:
- title: A concise title (max 50 characters)
- content: The main content/body text
- start_time: Start datetime in ISO format (YYYY-MM-DDTHH:MM) if mentioned, null if not found
- end_time: End datetime in ISO format (YYYY-MM-DDTHH:MM) if mentioned, null if not found

Examples of time expressions to interpret:
- "tomorrow at 3pm" = %s
- "next Monday 9am to 5pm" = calculate the next Monday date
- "this Friday from 2:00 to 3:30" = calculate this Friday's date
- "December 25th 2024 from 10:00 to 12:00"

Return only the JSON object, no explanations.`, dc.String(), text, dc.TomorrowAt3PM)
}

func translateSystem(language string) string {
	return fmt.Sprintf("You are a professional translator. Translate the given text accurately to %s while preserving the meaning, tone, and structure. Return only the JSON object with translated title and content.", language)
}

func translatePrompt(language, title, content string) string {
	text := ""
	if title != "" {
		text += fmt.Sprintf("Title: %s\n\n", title)
	}
	if content != "" {
		text += "Content: " + content
	}
	return fmt.Sprintf(`Please translate the following note to %s.

Maintain the structure and formatting. Return the translation in JSON format with 'title' and 'content' fields.

Text to translate:
%s

Return only a JSON object like:
{"title": "translated title", "content": "translated content"}`, language, text)
}
