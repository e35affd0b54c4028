package highlights

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

func TestExportRoundTrip(t *testing.T) {
	doc := domain.NewSourceText("Préambule. " + termDoc)
	res := NewReconciler().Reconcile(doc, response(t,
		section("Liability is capped at $500.", 0, 5),
		section("The term is 12 months.", 11, 33),
	))
	require.True(t, res.OK())
	res.Analysis.ID = "analysis-1"

	data, err := EncodeAnalysis(res.Analysis)
	require.NoError(t, err)

	loaded, err := DecodeAnalysis(data)
	require.NoError(t, err)
	assert.Equal(t, res.Analysis.Highlights, loaded.Highlights)

	again, err := EncodeAnalysis(loaded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestDecodeAnalysis_RejectsDriftedHighlights(t *testing.T) {
	a := &domain.Analysis{
		DocumentText: termDoc,
		Highlights: []domain.Highlight{
			{Text: "Liability is capped at $500.", StartPosition: 24, EndPosition: 52, Type: domain.HighlightLiability},
		},
	}
	data, err := EncodeAnalysis(a)
	require.NoError(t, err)

	_, err = DecodeAnalysis(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, strings.Contains(err.Error(), "highlight 0"))
}
