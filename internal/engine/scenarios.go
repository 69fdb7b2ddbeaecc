package engine

import (
	"fmt"
	"strings"

	"quicksearch/internal/catalog"
	"quicksearch/internal/chat"
)

const (
	headerSingle      = "Based on your request, this is the single best match we recommend:"
	headerCountFormat = "Based on your request, here are the %d best matches we recommend:"
	headerMany        = "We found multiple products that match your request. Here they are:"
	headerAlternative = "I couldn’t find anything for \"%s\", but here are the closest matches that our customers love:"
	headerMore        = "Based on your request we have found a lot of products matching your description:"
	footerFurtherHelp = "Do you need any further help?"

	noResultsFormat = "No results found for \"%s\". I suggest checking these items:"
	supportText     = "If you need immediate help, call us (+3706 465 8132) or send us an email (info@shop.lt)."
	errorText       = "This is an error message that will be displayed when there's an error."

	defaultIntro  = "This is a default text message, to test different outcomes use the following keywords listed below:"
	tutorialIntro = "Here is every keyword the assistant understands:"

	previewCount = 3
)

// Recommendations are the chips offered when nothing matched.
var Recommendations = []chat.Action{
	{Label: "Recommendation 1", Value: "rec1"},
	{Label: "Recommendation 2", Value: "rec2"},
}

// Build produces the scripted entries for a scenario. Every entry id is
// derived from loaderID; query is the lowercased user text.
func Build(s Scenario, loaderID, query string, products []catalog.Product) []chat.Message {
	header := func(suffix string) chat.Header {
		return chat.Header{ID: chat.DerivedID(loaderID, suffix)}
	}

	switch s {
	case ScenarioNone:
		return []chat.Message{
			chat.AssistantText{Header: header("none"), Text: fmt.Sprintf(noResultsFormat, query), Style: chat.StyleNoResults},
			chat.Actions{Header: header("actions"), Actions: append([]chat.Action(nil), Recommendations...), Style: chat.StyleRecommendations},
			chat.AssistantText{Header: header("support"), Text: supportText, Style: chat.StyleSupport},
		}

	case ScenarioAlternative:
		return []chat.Message{chat.Products{
			Header:       header("alternative"),
			Products:     slice(products, 3, 6),
			Title:        fmt.Sprintf(headerAlternative, query),
			Footer:       footerFurtherHelp,
			VisibleCount: previewCount,
		}}

	case ScenarioMany:
		return []chat.Message{chat.Products{
			Header:       header("many"),
			Products:     slice(products, 0, len(products)),
			Title:        headerMany,
			Footer:       footerFurtherHelp,
			VisibleCount: previewCount,
		}}

	case ScenarioMore:
		return []chat.Message{chat.Products{
			Header:       header("more"),
			Products:     slice(products, 0, len(products)),
			Title:        headerMore,
			VisibleCount: previewCount,
			ShowMore:     true,
		}}

	case ScenarioFeedback:
		return []chat.Message{chat.Feedback{Header: header("feedback")}}

	case ScenarioConnection:
		return []chat.Message{chat.ConnectionLost{Header: header("connection")}}

	case ScenarioError:
		return []chat.Message{chat.Error{Header: header("error"), Text: errorText}}

	case ScenarioTutorial:
		return []chat.Message{chat.AssistantText{Header: header("tutorial"), Text: keywordList(tutorialIntro)}}
	}

	if r, ok := ruleFor(s); ok && r.Count > 0 {
		items := slice(products, 0, r.Count)
		title := headerSingle
		if r.Count > 1 {
			title = fmt.Sprintf(headerCountFormat, len(items))
		}
		return []chat.Message{chat.Products{
			Header:       header(string(s)),
			Products:     items,
			Title:        title,
			VisibleCount: min(len(items), previewCount),
			ShowMore:     len(items) > previewCount,
		}}
	}

	return []chat.Message{chat.AssistantText{Header: header("default"), Text: keywordList(defaultIntro)}}
}

func slice(products []catalog.Product, from, to int) []catalog.Product {
	if to > len(products) {
		to = len(products)
	}
	if from >= to {
		return nil
	}
	return append([]catalog.Product(nil), products[from:to]...)
}

// keywordList renders the intro followed by one markdown bullet per keyword.
func keywordList(intro string) string {
	var b strings.Builder
	b.WriteString(intro)
	for _, r := range Rules {
		fmt.Fprintf(&b, "\n- type '%s' → %s", r.Keyword, r.Hint)
	}
	return b.String()
}
