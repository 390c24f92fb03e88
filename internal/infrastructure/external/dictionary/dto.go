package dictionary

// LookupResponse is the raw payload returned by the Yandex Dictionary
// lookup endpoint.
type LookupResponse struct {
	Head struct{}        `json:"head"`
	Def  []DefinitionDTO `json:"def"`
}

// DefinitionDTO is one dictionary article for the looked-up word.
type DefinitionDTO struct {
	Text          string           `json:"text"`
	Pos           string           `json:"pos,omitempty"`
	Transcription string           `json:"ts,omitempty"`
	Translations  []TranslationDTO `json:"tr"`
}

// TranslationDTO is one translation of a definition, with its synonyms,
// meanings, and usage examples.
type TranslationDTO struct {
	Text     string       `json:"text"`
	Pos      string       `json:"pos,omitempty"`
	Synonyms []TextDTO    `json:"syn,omitempty"`
	Meanings []TextDTO    `json:"mean,omitempty"`
	Examples []ExampleDTO `json:"ex,omitempty"`
}

// TextDTO wraps a bare text value.
type TextDTO struct {
	Text string `json:"text"`
}

// ExampleDTO is a usage example with its translations.
type ExampleDTO struct {
	Text         string    `json:"text"`
	Translations []TextDTO `json:"tr,omitempty"`
}

// apiError is the error payload the API returns on non-200 responses.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
