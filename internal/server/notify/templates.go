// Package notify renders localized notifications and defines the mail and
// shipping collaborators the release cycle talks to.
package notify

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*.json
var bundleFS embed.FS

// FallbackLanguage is used when a template is missing for the requested
// language.
const FallbackLanguage = "en"

type TemplateID string

const (
	TemplateHeartbeatWarning   TemplateID = "heartbeat_warning"
	TemplateBeneficiaryRelease TemplateID = "beneficiary_release"
)

// Message is a rendered notification.
type Message struct {
	Subject string
	Body    string
}

// WarningData fills TemplateHeartbeatWarning.
type WarningData struct {
	FrequencyDays int
	GraceDays     int
	ConfirmURL    string
}

// ReleaseData fills TemplateBeneficiaryRelease.
type ReleaseData struct {
	BeneficiaryName string
	ReleaseToken    string
	ExpiresAt       time.Time
	UnlockURL       string
}

type entry struct {
	subject *template.Template
	body    *template.Template
}

// Bundle holds parsed templates keyed by (template id, language).
type Bundle struct {
	entries map[string]map[TemplateID]entry
}

type rawEntry struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// LoadBundle parses the embedded templates. It fails if any language file
// is malformed or the fallback language is missing.
func LoadBundle() (*Bundle, error) {
	files, err := bundleFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	b := &Bundle{entries: make(map[string]map[TemplateID]entry)}
	for _, f := range files {
		lang := strings.TrimSuffix(f.Name(), path.Ext(f.Name()))
		data, err := bundleFS.ReadFile("templates/" + f.Name())
		if err != nil {
			return nil, err
		}
		raw := map[TemplateID]rawEntry{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("template bundle %s: %w", lang, err)
		}
		parsed := make(map[TemplateID]entry, len(raw))
		for id, r := range raw {
			name := lang + "/" + string(id)
			subj, err := template.New(name + "/subject").Option("missingkey=error").Parse(r.Subject)
			if err != nil {
				return nil, fmt.Errorf("template %s subject: %w", name, err)
			}
			body, err := template.New(name + "/body").Option("missingkey=error").Parse(r.Body)
			if err != nil {
				return nil, fmt.Errorf("template %s body: %w", name, err)
			}
			parsed[id] = entry{subject: subj, body: body}
		}
		b.entries[lang] = parsed
	}

	if _, ok := b.entries[FallbackLanguage]; !ok {
		return nil, fmt.Errorf("template bundle: missing %q", FallbackLanguage)
	}
	return b, nil
}

// MustLoadBundle is LoadBundle for program start-up.
func MustLoadBundle() *Bundle {
	b, err := LoadBundle()
	if err != nil {
		panic(err)
	}
	return b
}

// Languages lists the languages present in the bundle.
func (b *Bundle) Languages() []string {
	out := make([]string, 0, len(b.entries))
	for l := range b.entries {
		out = append(out, l)
	}
	return out
}

// Render looks up (id, language), falling back to FallbackLanguage, and
// executes it with data. Language tags such as "de-AT" match "de".
func (b *Bundle) Render(id TemplateID, language string, data any) (Message, error) {
	e, ok := b.lookup(id, language)
	if !ok {
		return Message{}, fmt.Errorf("unknown template %q", id)
	}

	var subj, body bytes.Buffer
	if err := e.subject.Execute(&subj, data); err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", id, err)
	}
	if err := e.body.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("render %s body: %w", id, err)
	}
	return Message{Subject: subj.String(), Body: body.String()}, nil
}

func (b *Bundle) lookup(id TemplateID, language string) (entry, bool) {
	lang := strings.ToLower(language)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if set, ok := b.entries[lang]; ok {
		if e, ok := set[id]; ok {
			return e, true
		}
	}
	e, ok := b.entries[FallbackLanguage][id]
	return e, ok
}
