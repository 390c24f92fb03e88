package query

import (
	"context"
	"strings"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/internal/infrastructure/external/dictionary"
	"github.com/margo-hub/margo-learning-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOOKUP WORD QUERY
// Translates a word or phrase through the Yandex Dictionary API and flattens
// the nested definition tree into a client-friendly shape.
// ══════════════════════════════════════════════════════════════════════════════

const maxLookupTextLength = 100

// Translator is the dictionary capability the handler depends on.
type Translator interface {
	Lookup(ctx context.Context, text, direction string) (*dictionary.LookupResponse, error)
}

// LookupWordQuery contains lookup parameters.
type LookupWordQuery struct {
	Text      string
	Direction string
}

// Validate normalizes and checks lookup parameters.
func (q *LookupWordQuery) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return shared.NewDomainError("dictionary", "Lookup", shared.ErrValidation, "текст для перевода не указан")
	}
	if len(q.Text) > maxLookupTextLength {
		return shared.NewDomainError("dictionary", "Lookup", shared.ErrValidation, "текст для перевода слишком длинный")
	}
	switch q.Direction {
	case "", dictionary.DirectionEnRu:
		q.Direction = dictionary.DirectionEnRu
	case dictionary.DirectionRuEn:
	default:
		return shared.NewDomainError("dictionary", "Lookup", shared.ErrValidation, "неподдерживаемое направление перевода")
	}
	return nil
}

// TranslationDTO is one translation of the looked-up word.
type TranslationDTO struct {
	Text     string   `json:"text"`
	Pos      string   `json:"pos,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
	Meanings []string `json:"meanings,omitempty"`
	Examples []string `json:"examples,omitempty"`
}

// DefinitionDTO is one dictionary article for the looked-up word.
type DefinitionDTO struct {
	Text          string           `json:"text"`
	Pos           string           `json:"pos,omitempty"`
	Transcription string           `json:"transcription,omitempty"`
	Translations  []TranslationDTO `json:"translations"`
}

// LookupWordResult is the lookup payload.
type LookupWordResult struct {
	Text        string          `json:"text"`
	Direction   string          `json:"direction"`
	Definitions []DefinitionDTO `json:"definitions"`
	Found       bool            `json:"found"`
}

// LookupWordHandler handles dictionary lookups.
type LookupWordHandler struct {
	translator Translator
	log        *logger.Logger
}

// NewLookupWordHandler creates a new handler.
func NewLookupWordHandler(translator Translator, log *logger.Logger) *LookupWordHandler {
	return &LookupWordHandler{
		translator: translator,
		log:        log.With(logger.Component("lookup_word")),
	}
}

// Handle performs the lookup and flattens the response.
func (h *LookupWordHandler) Handle(ctx context.Context, query LookupWordQuery) (*LookupWordResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	resp, err := h.translator.Lookup(ctx, query.Text, query.Direction)
	if err != nil {
		h.log.Warn("dictionary lookup failed",
			logger.String("direction", query.Direction),
			logger.Err(err),
		)
		return nil, err
	}

	result := &LookupWordResult{
		Text:        query.Text,
		Direction:   query.Direction,
		Definitions: make([]DefinitionDTO, len(resp.Def)),
		Found:       len(resp.Def) > 0,
	}
	for i, def := range resp.Def {
		result.Definitions[i] = flattenDefinition(def)
	}
	return result, nil
}

func flattenDefinition(def dictionary.DefinitionDTO) DefinitionDTO {
	out := DefinitionDTO{
		Text:          def.Text,
		Pos:           def.Pos,
		Transcription: def.Transcription,
		Translations:  make([]TranslationDTO, len(def.Translations)),
	}
	for i, tr := range def.Translations {
		out.Translations[i] = TranslationDTO{
			Text:     tr.Text,
			Pos:      tr.Pos,
			Synonyms: textsOf(tr.Synonyms),
			Meanings: textsOf(tr.Meanings),
			Examples: exampleTexts(tr.Examples),
		}
	}
	return out
}

func textsOf(items []dictionary.TextDTO) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

func exampleTexts(items []dictionary.ExampleDTO) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, ex := range items {
		out[i] = ex.Text
		if len(ex.Translations) > 0 {
			out[i] = ex.Text + " (" + ex.Translations[0].Text + ")"
		}
	}
	return out
}
