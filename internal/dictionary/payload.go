package dictionary

import (
	"bytes"
	"encoding/json"
)

// NoDefinitionText is rendered when a successful payload has no definition at the expected path.
const NoDefinitionText = "No definition found"

// Entry is one headword record returned by the definition service.
type Entry struct {
	Word     string    `json:"word"`
	Phonetic string    `json:"phonetic,omitempty"`
	Meanings []Meaning `json:"meanings"`
}

// Meaning groups the definitions of an entry by part of speech.
type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech,omitempty"`
	Definitions  []Definition `json:"definitions"`
}

// Definition is the leaf string describing one sense of a word.
type Definition struct {
	Definition string `json:"definition"`
	Example    string `json:"example,omitempty"`
}

// Payload is the parsed body of a successful lookup. Raw keeps the body as the service sent it;
// Entries holds whatever part of it could be decoded into the entry shape.
type Payload struct {
	Raw     json.RawMessage
	Entries []Entry
}

// newPayload returns nil for a literal null body: the lookup succeeded but there is nothing to show.
func newPayload(body []byte) *Payload {
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil
	}

	payload := &Payload{Raw: append(json.RawMessage(nil), body...)}

	// Bodies that are valid JSON but not an entry array stay opaque.
	var entries []Entry
	if err := json.Unmarshal(body, &entries); err == nil {
		payload.Entries = entries
	}

	return payload
}

// FirstDefinition returns the first entry's first meaning's first definition, if present.
func (p *Payload) FirstDefinition() (string, bool) {
	if p == nil || len(p.Entries) == 0 {
		return "", false
	}

	meanings := p.Entries[0].Meanings
	if len(meanings) == 0 {
		return "", false
	}

	definitions := meanings[0].Definitions
	if len(definitions) == 0 || definitions[0].Definition == "" {
		return "", false
	}

	return definitions[0].Definition, true
}

// DisplayText is the text shown for the payload in the result region.
func (p *Payload) DisplayText() string {
	if definition, ok := p.FirstDefinition(); ok {
		return definition
	}
	return NoDefinitionText
}
