package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margo-hub/margo-learning-hub/internal/domain/shared"
	"github.com/margo-hub/margo-learning-hub/internal/infrastructure/external/dictionary"
)

type fakeTranslator struct {
	response *dictionary.LookupResponse
	err      error

	lastText      string
	lastDirection string
}

func (f *fakeTranslator) Lookup(_ context.Context, text, direction string) (*dictionary.LookupResponse, error) {
	f.lastText = text
	f.lastDirection = direction
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func TestLookupWord_FlattensResponse(t *testing.T) {
	translator := &fakeTranslator{response: &dictionary.LookupResponse{
		Def: []dictionary.DefinitionDTO{{
			Text:          "time",
			Pos:           "noun",
			Transcription: "taɪm",
			Translations: []dictionary.TranslationDTO{{
				Text:     "время",
				Pos:      "существительное",
				Synonyms: []dictionary.TextDTO{{Text: "раз"}},
				Meanings: []dictionary.TextDTO{{Text: "срок"}},
				Examples: []dictionary.ExampleDTO{{
					Text:         "for a long time",
					Translations: []dictionary.TextDTO{{Text: "долго"}},
				}},
			}},
		}},
	}}
	handler := NewLookupWordHandler(translator, testLogger())

	result, err := handler.Handle(context.Background(), LookupWordQuery{Text: "  time "})
	require.NoError(t, err)

	assert.Equal(t, "time", result.Text)
	assert.Equal(t, dictionary.DirectionEnRu, result.Direction)
	assert.True(t, result.Found)
	require.Len(t, result.Definitions, 1)

	def := result.Definitions[0]
	assert.Equal(t, "taɪm", def.Transcription)
	require.Len(t, def.Translations, 1)
	assert.Equal(t, "время", def.Translations[0].Text)
	assert.Equal(t, []string{"раз"}, def.Translations[0].Synonyms)
	assert.Equal(t, []string{"срок"}, def.Translations[0].Meanings)
	assert.Equal(t, []string{"for a long time (долго)"}, def.Translations[0].Examples)
}

func TestLookupWord_EmptyResultIsNotAnError(t *testing.T) {
	translator := &fakeTranslator{response: &dictionary.LookupResponse{}}
	handler := NewLookupWordHandler(translator, testLogger())

	result, err := handler.Handle(context.Background(), LookupWordQuery{
		Text:      "абракадабра",
		Direction: dictionary.DirectionRuEn,
	})
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, result.Definitions)
	assert.Equal(t, dictionary.DirectionRuEn, translator.lastDirection)
}

func TestLookupWord_Validation(t *testing.T) {
	handler := NewLookupWordHandler(&fakeTranslator{}, testLogger())
	ctx := context.Background()

	_, err := handler.Handle(ctx, LookupWordQuery{Text: "   "})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = handler.Handle(ctx, LookupWordQuery{Text: strings.Repeat("a", 101)})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = handler.Handle(ctx, LookupWordQuery{Text: "time", Direction: "en-fr"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestLookupWord_PropagatesClientErrors(t *testing.T) {
	translator := &fakeTranslator{err: shared.ErrDictionaryRateLimited}
	handler := NewLookupWordHandler(translator, testLogger())

	_, err := handler.Handle(context.Background(), LookupWordQuery{Text: "time"})
	assert.True(t, errors.Is(err, shared.ErrRateLimited))
}
