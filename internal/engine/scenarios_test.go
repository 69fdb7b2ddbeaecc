package engine

import (
	"fmt"
	"testing"

	"quicksearch/internal/catalog"
	"quicksearch/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProducts(n int) []catalog.Product {
	out := make([]catalog.Product, n)
	for i := range out {
		out[i] = catalog.Product{ID: fmt.Sprintf("p%d", i), Title: fmt.Sprintf("Product %d", i)}
	}
	return out
}

func TestBuildCountScenarios(t *testing.T) {
	products := testProducts(9)

	for _, r := range Rules {
		if r.Count == 0 {
			continue
		}
		t.Run(r.Keyword, func(t *testing.T) {
			out := Build(r.Scenario, "L", r.Keyword, products)
			require.Len(t, out, 1)

			p, ok := out[0].(chat.Products)
			require.True(t, ok)
			assert.Equal(t, "L-"+r.Keyword, p.ID)
			assert.Len(t, p.Products, r.Count)
			assert.Equal(t, min(r.Count, 3), p.VisibleCount)
			assert.Equal(t, r.Count > 3, p.ShowMore)
		})
	}
}

func TestBuildSingleKeepsHeader(t *testing.T) {
	out := Build(ScenarioOne, "L", "one", testProducts(9))
	assert.Equal(t, headerSingle, out[0].(chat.Products).Title)
}

func TestBuildProductStrips(t *testing.T) {
	products := testProducts(9)

	many := Build(ScenarioMany, "L", "many", products)[0].(chat.Products)
	assert.Len(t, many.Products, 9)
	assert.Equal(t, 3, many.VisibleCount)
	assert.False(t, many.ShowMore)
	assert.Equal(t, footerFurtherHelp, many.Footer)

	alt := Build(ScenarioAlternative, "L", "alternative socks", products)[0].(chat.Products)
	assert.Equal(t, []string{"p3", "p4", "p5"}, []string{alt.Products[0].ID, alt.Products[1].ID, alt.Products[2].ID})
	assert.Contains(t, alt.Title, `"alternative socks"`)

	more := Build(ScenarioMore, "L", "more", products)[0].(chat.Products)
	assert.Len(t, more.Products, 9)
	assert.True(t, more.ShowMore)
	assert.Equal(t, 3, more.VisibleCount)
}

func TestBuildShortCatalog(t *testing.T) {
	out := Build(ScenarioEight, "L", "eight", testProducts(2))
	p := out[0].(chat.Products)
	assert.Len(t, p.Products, 2)
	assert.Equal(t, 2, p.VisibleCount)
	assert.False(t, p.ShowMore)

	alt := Build(ScenarioAlternative, "L", "alternative", testProducts(2))[0].(chat.Products)
	assert.Empty(t, alt.Products)
}

func TestBuildNone(t *testing.T) {
	out := Build(ScenarioNone, "L", "none", nil)
	require.Len(t, out, 3)

	first := out[0].(chat.AssistantText)
	assert.Equal(t, "L-none", first.ID)
	assert.Equal(t, chat.StyleNoResults, first.Style)
	assert.Equal(t, `No results found for "none". I suggest checking these items:`, first.Text)

	actions := out[1].(chat.Actions)
	assert.Equal(t, "L-actions", actions.ID)
	assert.Len(t, actions.Actions, 2)
	assert.Equal(t, chat.StyleRecommendations, actions.Style)

	support := out[2].(chat.AssistantText)
	assert.Equal(t, "L-support", support.ID)
	assert.Equal(t, chat.StyleSupport, support.Style)
}

func TestBuildSingleEntryScenarios(t *testing.T) {
	tests := []struct {
		scenario Scenario
		id       string
		kind     chat.Kind
	}{
		{ScenarioFeedback, "L-feedback", chat.KindFeedback},
		{ScenarioConnection, "L-connection", chat.KindConnectionLost},
		{ScenarioError, "L-error", chat.KindError},
		{ScenarioTutorial, "L-tutorial", chat.KindAssistantText},
		{ScenarioDefault, "L-default", chat.KindAssistantText},
	}

	for _, tt := range tests {
		t.Run(string(tt.scenario), func(t *testing.T) {
			out := Build(tt.scenario, "L", string(tt.scenario), nil)
			require.Len(t, out, 1)
			assert.Equal(t, tt.id, out[0].MessageID())
			assert.Equal(t, tt.kind, out[0].Kind())
		})
	}
}

func TestKeywordListMentionsEveryKeyword(t *testing.T) {
	text := Build(ScenarioTutorial, "L", "tutorial", nil)[0].(chat.AssistantText).Text
	for _, kw := range Keywords() {
		assert.Contains(t, text, "'"+kw+"'")
	}
}
