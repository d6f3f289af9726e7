package heuristic

import (
	"math"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
	"time"

	"accentscope/internal/accent"
	"accentscope/internal/langid"
)

// Strategy and source names reported by heuristic results.
const (
	StrategyURL = "url-heuristic"
	SourceURL   = "url-heuristic"
)

// englishProbability is the chance an unhinted URL is reported as English.
const englishProbability = 0.7

// unhintedMiss labels an unhinted URL that lost the coin flip.
const unhintedMiss = "unknown"

type hint struct {
	token string
	value string
}

// Language hints map URL tokens to bare ISO 639-1 codes. Tokens are matched
// against path segments, host labels, and query values. Non-English codes
// must not contain "en" or the English gate would accept them.
var languageHints = []hint{
	{"english", "en"}, {"en", "en"}, {"en-us", "en"}, {"en-gb", "en"}, {"en_us", "en"}, {"en_gb", "en"},
	{"spanish", "es"}, {"espanol", "es"}, {"es", "es"},
	{"french", "fr"}, {"francais", "fr"}, {"fr", "fr"},
	{"german", "de"}, {"deutsch", "de"}, {"de", "de"},
	{"italian", "it"}, {"it", "it"},
	{"portuguese", "pt"}, {"pt", "pt"},
	{"japanese", "ja"}, {"ja", "ja"},
	{"hindi", "hi"}, {"hi", "hi"},
}

// Accent hints map URL tokens to accent display names.
var accentHints = []hint{
	{"us", "American"}, {"usa", "American"}, {"american", "American"}, {"en-us", "American"}, {"en_us", "American"},
	{"uk", "British (England)"}, {"bbc", "British (England)"}, {"british", "British (England)"}, {"england", "British (England)"}, {"en-gb", "British (England)"}, {"en_gb", "British (England)"},
	{"au", "Australian"}, {"australia", "Australian"}, {"australian", "Australian"}, {"abc", "Australian"},
	{"in", "Indian"}, {"india", "Indian"}, {"indian", "Indian"},
	{"ca", "Canadian"}, {"canada", "Canadian"}, {"canadian", "Canadian"}, {"cbc", "Canadian"},
	{"scotland", "Scottish"}, {"scottish", "Scottish"},
	{"ireland", "Irish"}, {"irish", "Irish"}, {"ie", "Irish"},
	{"nz", "New Zealand"}, {"newzealand", "New Zealand"},
}

// Guesser produces URL-based guesses. It is safe for concurrent use.
type Guesser struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Guesser. A nil rng seeds from the clock.
func New(rng *rand.Rand) *Guesser {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Guesser{rng: rng}
}

// Tokens splits a URL into lowercase host labels, path segments, and query
// values. File extensions are stripped from the last path segment.
func Tokens(rawURL string) []string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil
	}
	var tokens []string
	for _, label := range strings.Split(strings.ToLower(parsed.Hostname()), ".") {
		if label != "" {
			tokens = append(tokens, label)
		}
	}
	for _, segment := range strings.FieldsFunc(strings.ToLower(parsed.Path), func(r rune) bool {
		return r == '/' || r == '.' || r == '+' || r == ' '
	}) {
		tokens = append(tokens, segment)
		// also split compound segments such as "ted-talk-english"
		if strings.ContainsAny(segment, "-_") {
			tokens = append(tokens, strings.FieldsFunc(segment, func(r rune) bool { return r == '-' || r == '_' })...)
		}
	}
	for _, values := range parsed.Query() {
		for _, v := range values {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				tokens = append(tokens, v)
			}
		}
	}
	return tokens
}

func match(tokens []string, hints []hint) (string, bool) {
	for _, h := range hints {
		for _, token := range tokens {
			if token == h.token {
				return h.value, true
			}
		}
	}
	return "", false
}

// Language guesses the spoken language. A hinted URL yields 75-95 %
// confidence; otherwise a weighted coin flip yields 55-75 %.
func (g *Guesser) Language(rawURL string) langid.Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if label, ok := match(Tokens(rawURL), languageHints); ok {
		return langid.Result{
			Label:      label,
			Confidence: g.between(75, 95),
			Strategy:   StrategyURL,
			Detail:     map[string]string{"basis": "url hint"},
		}
	}
	label := unhintedMiss
	if g.rng.Float64() < englishProbability {
		label = "en"
	}
	return langid.Result{
		Label:      label,
		Confidence: g.between(55, 75),
		Strategy:   StrategyURL,
		Detail:     map[string]string{"basis": "random"},
	}
}

// Accent guesses the accent. A hinted URL yields 70-90 %; otherwise a
// shortlist entry is drawn at 60-80 %.
func (g *Guesser) Accent(rawURL string) accent.Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if name, ok := match(Tokens(rawURL), accentHints); ok {
		return accent.Result{Label: name, Confidence: g.between(70, 90), Source: SourceURL}
	}
	return accent.Result{
		Label:      accent.RandomShortlist[g.rng.IntN(len(accent.RandomShortlist))],
		Confidence: g.between(60, 80),
		Source:     SourceURL,
	}
}

// between draws a value in [lo, hi] rounded to one decimal.
func (g *Guesser) between(lo, hi float64) float64 {
	return math.Round((lo+g.rng.Float64()*(hi-lo))*10) / 10
}
