package analysis

import (
	"context"
	"html"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
)

// EntityTypeProperNoun marks entities found by the capitalisation heuristic.
const EntityTypeProperNoun = "PROPER_NOUN"

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

// words that are capitalised at the start of a sentence without naming anything
var sentenceOpeners = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "but": {}, "he": {}, "her": {}, "his": {}, "how": {},
	"i": {}, "if": {}, "in": {}, "it": {}, "its": {}, "my": {}, "no": {}, "not": {},
	"of": {}, "on": {}, "or": {}, "our": {}, "she": {}, "so": {}, "that": {}, "the": {},
	"their": {}, "there": {}, "these": {}, "they": {}, "this": {}, "those": {}, "to": {},
	"we": {}, "what": {}, "when": {}, "where": {}, "who": {}, "why": {}, "yes": {}, "you": {},
	"your": {},
}

// VADER is an offline Provider. Sentiment comes from the VADER lexicon and
// entities from runs of capitalised words.
type VADER struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVADER loads the VADER lexicon.
func NewVADER() *VADER {
	return &VADER{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// DetectSentiment scores text using the VADER compound score.
func (v *VADER) DetectSentiment(ctx context.Context, text string) (Sentiment, error) {
	if err := ctx.Err(); err != nil {
		return Sentiment{}, err
	}
	plain := plainText(text)
	if plain == "" {
		return Sentiment{}, nil
	}
	scores := v.analyzer.PolarityScores(plain)
	return Sentiment{
		Score:     scores.Compound,
		Magnitude: math.Abs(scores.Compound),
	}, nil
}

// DetectEntities returns capitalised word runs as proper noun entities.
func (v *VADER) DetectEntities(ctx context.Context, text string) (EntityAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return EntityAnalysis{}, err
	}
	return EntityAnalysis{Entities: properNouns(plainText(text)), Language: "en"}, nil
}

// plainText renders markdown input and drops markup and links, keeping link text.
func plainText(input string) string {
	rendered := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	text := tagPattern.ReplaceAllString(string(rendered), " ")
	text = html.UnescapeString(text)
	text = linkPattern.ReplaceAllString(text, "$1")
	text = urlPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

func properNouns(text string) []Entity {
	type span struct {
		name   string
		offset int
	}

	var (
		spans      []span
		current    []string
		start      int
		sentenceAt = true
	)
	flush := func() {
		if len(current) > 0 {
			spans = append(spans, span{name: strings.Join(current, " "), offset: start})
		}
		current = nil
	}

	for _, tok := range tokenize(text) {
		word := strings.TrimFunc(tok.word, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		opener := sentenceAt
		sentenceAt = strings.ContainsAny(tok.word[len(tok.word)-1:], ".!?")

		if word == "" || !startsUpper(word) {
			flush()
			continue
		}
		if _, common := sentenceOpeners[strings.ToLower(word)]; common && (opener || len(current) == 0) {
			flush()
			continue
		}
		if len(current) == 0 {
			start = tok.offset + strings.Index(tok.word, word)
		}
		current = append(current, word)
		if strings.ContainsAny(tok.word, ".!?,;:") {
			flush()
		}
	}
	flush()

	if len(spans) == 0 {
		return []Entity{}
	}

	counts := make(map[string]int)
	var order []string
	mentions := make(map[string][]Mention)
	for _, s := range spans {
		if counts[s.name] == 0 {
			order = append(order, s.name)
		}
		counts[s.name]++
		mentions[s.name] = append(mentions[s.name], Mention{Content: s.name, BeginOffset: int32(s.offset), Type: "PROPER"})
	}

	entities := make([]Entity, 0, len(order))
	for _, name := range order {
		entities = append(entities, Entity{
			Name:     name,
			Type:     EntityTypeProperNoun,
			Salience: float64(counts[name]) / float64(len(spans)),
			Mentions: mentions[name],
		})
	}
	return entities
}

type token struct {
	word   string
	offset int
}

func tokenize(text string) []token {
	var out []token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, token{word: text[start:i], offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, token{word: text[start:], offset: start})
	}
	return out
}

func startsUpper(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}
