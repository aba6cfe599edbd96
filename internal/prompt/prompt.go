// Package prompt renders the instructions sent to the language model.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Supported answer languages.
const (
	Turkish = "tr"
	English = "en"
)

var fallbacks = map[string]string{
	Turkish: "Bu konuda sağlanan dokümanlarda bilgi bulamadım.",
	English: "I could not find information on this topic in the provided documents.",
}

var greetings = map[string]string{
	Turkish: "Merhaba! Sürdürülebilirlik veya ÇSY konularında nasıl yardımcı olabilirim?",
	English: "Hello! How can I help you with sustainability or ESG topics?",
}

var examples = map[string][]string{
	Turkish: {
		"Sürdürülebilir uygulamaların artırılması şirkete hangi katkıları sağlar?",
		"Sınırda karbon düzenlemesi nedir?",
		"Paris Anlaşması nedir?",
		"Kurumsal Yönetim nedir?",
		"Karbon tutma nedir?",
	},
	English: {
		"What does increasing sustainable practices contribute to a company?",
		"What is the carbon border adjustment mechanism?",
		"What is the Paris Agreement?",
		"What is corporate governance?",
		"What is carbon capture?",
	},
}

// FallbackPhrase is the exact sentence the model must answer with when the
// context does not contain the answer.
func FallbackPhrase(lang string) string {
	if f, ok := fallbacks[lang]; ok {
		return f
	}
	return fallbacks[Turkish]
}

// Greeting is the first assistant turn of a fresh conversation.
func Greeting(lang string) string {
	if g, ok := greetings[lang]; ok {
		return g
	}
	return greetings[Turkish]
}

// ExampleQuestions returns sample questions shown to new users.
func ExampleQuestions(lang string) []string {
	if e, ok := examples[lang]; ok {
		return append([]string(nil), e...)
	}
	return append([]string(nil), examples[Turkish]...)
}

// Labels holds the fixed interface strings of the terminal front-ends.
type Labels struct {
	Title       string
	You         string
	Assistant   string
	Placeholder string
	Cleared     string
	Thinking    string
	Failed      string
	// SourceFormat takes the document name and the 1-based page.
	SourceFormat string
	// SourceCountFormat takes the number of sources of an answer.
	SourceCountFormat string
}

var labels = map[string]Labels{
	Turkish: {
		Title:             "ÇSY Asistanı",
		You:               "Siz",
		Assistant:         "Asistan",
		Placeholder:       "Sorunuzu yazın, Enter ile gönderin (Tab: örnek, /clear, /quit)",
		Cleared:           "Sohbet temizlendi.",
		Thinking:          "Yanıt hazırlanıyor...",
		Failed:            "Hata.",
		SourceFormat:      "Kaynak: %s - Sayfa: %d",
		SourceCountFormat: "%d kaynak.",
	},
	English: {
		Title:             "ESG Assistant",
		You:               "You",
		Assistant:         "Assistant",
		Placeholder:       "Type your question, press Enter to send (Tab: example, /clear, /quit)",
		Cleared:           "Conversation cleared.",
		Thinking:          "Preparing the answer...",
		Failed:            "Error.",
		SourceFormat:      "Source: %s - Page: %d",
		SourceCountFormat: "%d sources.",
	},
}

// UILabels returns the interface strings for lang, falling back to Turkish.
func UILabels(lang string) Labels {
	if l, ok := labels[lang]; ok {
		return l
	}
	return labels[Turkish]
}

// Source formats a citation line.
func (l Labels) Source(document string, page int) string {
	return fmt.Sprintf(l.SourceFormat, document, page)
}

// Assembler renders answer and query-expansion prompts for one language.
// It is safe for concurrent use.
type Assembler struct {
	lang   string
	answer *template.Template
	multi  *template.Template
}

// New parses the templates for lang ("tr" or "en").
func New(lang string) (*Assembler, error) {
	if _, ok := fallbacks[lang]; !ok {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
	answer, err := template.ParseFS(templatesFS, "templates/answer_"+lang+".tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing answer template: %w", err)
	}
	multi, err := template.ParseFS(templatesFS, "templates/multi_query_"+lang+".tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing multi-query template: %w", err)
	}
	return &Assembler{lang: lang, answer: answer, multi: multi}, nil
}

// Language returns the answer language.
func (a *Assembler) Language() string { return a.lang }

// Fallback returns the fallback phrase for the assembler's language.
func (a *Assembler) Fallback() string { return FallbackPhrase(a.lang) }

// Assemble fills the answer template with the retrieved passages, in
// retrieval order and separated by a blank line, and the question verbatim.
func (a *Assembler) Assemble(chunks []string, question string) (string, error) {
	return render(a.answer, map[string]string{
		"Context":  strings.Join(chunks, "\n\n"),
		"Question": question,
		"Fallback": a.Fallback(),
	})
}

// MultiQuery renders the instruction asking for n rephrasings of question.
func (a *Assembler) MultiQuery(question string, n int) (string, error) {
	return render(a.multi, map[string]any{
		"Question": question,
		"N":        n,
	})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
