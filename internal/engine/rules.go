// Package engine is the scripted scenario engine. It turns a submitted query
// into a pending placeholder, then after a delay classifies the query by
// keyword and replaces the placeholder with the scripted outcome.
package engine

import (
	"strings"

	"quicksearch/internal/chat"
)

// Scenario is a keyword-triggered scripted outcome.
type Scenario string

const (
	ScenarioNone        Scenario = "none"
	ScenarioAlternative Scenario = "alternative"
	ScenarioMany        Scenario = "many"
	ScenarioOne         Scenario = "one"
	ScenarioTwo         Scenario = "two"
	ScenarioThree       Scenario = "three"
	ScenarioFour        Scenario = "four"
	ScenarioFive        Scenario = "five"
	ScenarioSix         Scenario = "six"
	ScenarioSeven       Scenario = "seven"
	ScenarioEight       Scenario = "eight"
	ScenarioMore        Scenario = "more"
	ScenarioFeedback    Scenario = "feedback"
	ScenarioConnection  Scenario = "connection"
	ScenarioError       Scenario = "error"
	ScenarioTutorial    Scenario = "tutorial"
	ScenarioDefault     Scenario = "default"
)

// Rule maps one keyword to its scenario. Count is the number of products a
// count scenario yields, zero otherwise.
type Rule struct {
	Keyword  string
	Scenario Scenario
	Count    int
	Products bool // resolves into a product strip
	Hint     string
}

// Rules is the classification order. The first rule whose keyword is a
// substring of the lowercased query wins.
var Rules = []Rule{
	{Keyword: "none", Scenario: ScenarioNone, Hint: "no results + recommendations"},
	{Keyword: "alternative", Scenario: ScenarioAlternative, Products: true, Hint: "alternative UI (3 different products)"},
	{Keyword: "many", Scenario: ScenarioMany, Products: true, Hint: "many products"},
	{Keyword: "one", Scenario: ScenarioOne, Count: 1, Products: true, Hint: "one product"},
	{Keyword: "two", Scenario: ScenarioTwo, Count: 2, Products: true, Hint: "two products"},
	{Keyword: "three", Scenario: ScenarioThree, Count: 3, Products: true, Hint: "three products"},
	{Keyword: "four", Scenario: ScenarioFour, Count: 4, Products: true, Hint: "four products with Show more"},
	{Keyword: "five", Scenario: ScenarioFive, Count: 5, Products: true, Hint: "five products with Show more"},
	{Keyword: "six", Scenario: ScenarioSix, Count: 6, Products: true, Hint: "six products with Show more"},
	{Keyword: "seven", Scenario: ScenarioSeven, Count: 7, Products: true, Hint: "seven products with Show more"},
	{Keyword: "eight", Scenario: ScenarioEight, Count: 8, Products: true, Hint: "eight products with Show more"},
	{Keyword: "more", Scenario: ScenarioMore, Products: true, Hint: "products with Show more button"},
	{Keyword: "feedback", Scenario: ScenarioFeedback, Hint: "feedback screen"},
	{Keyword: "connection", Scenario: ScenarioConnection, Hint: "connection lost screen"},
	{Keyword: "error", Scenario: ScenarioError, Hint: "error message"},
	{Keyword: "tutorial", Scenario: ScenarioTutorial, Hint: "this list"},
}

// Classify picks the scenario for a query.
func Classify(query string) Scenario {
	if r, ok := match(query); ok {
		return r.Scenario
	}
	return ScenarioDefault
}

func match(query string) (Rule, bool) {
	q := strings.ToLower(query)
	for _, r := range Rules {
		if strings.Contains(q, r.Keyword) {
			return r, true
		}
	}
	return Rule{}, false
}

// TargetFor decides what a pending placeholder for the query resolves into.
// It looks at the product keywords only, independent of classification order,
// so "none of the many" is still announced as a product search.
func TargetFor(query string) chat.Target {
	q := strings.ToLower(query)
	for _, r := range Rules {
		if r.Products && strings.Contains(q, r.Keyword) {
			return chat.TargetProducts
		}
	}
	return chat.TargetText
}

// HasKeyword reports whether the query would trigger any scripted scenario
// other than the default reply.
func HasKeyword(query string) bool {
	_, ok := match(query)
	return ok
}

// Keywords lists every keyword in classification order.
func Keywords() []string {
	out := make([]string, len(Rules))
	for i, r := range Rules {
		out[i] = r.Keyword
	}
	return out
}

func ruleFor(s Scenario) (Rule, bool) {
	for _, r := range Rules {
		if r.Scenario == s {
			return r, true
		}
	}
	return Rule{}, false
}
