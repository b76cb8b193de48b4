package reconcile

import (
	"strings"
	"unicode"
)

// defaultLanguage labels tracks no classification rule claimed.
const defaultLanguage = "International"

// Script evidence in the title is the strongest signal and wins outright.
// Hangul is checked before the Japanese set because Korean titles routinely
// mix Hangul with Han characters.
type scriptRule struct {
	language string
	ranges   []*unicode.RangeTable
}

var scriptRules = []scriptRule{
	{"Korean", []*unicode.RangeTable{unicode.Hangul}},
	{"Japanese", []*unicode.RangeTable{unicode.Hiragana, unicode.Katakana, unicode.Han}},
	{"Russian", []*unicode.RangeTable{unicode.Cyrillic}},
	{"Arabic", []*unicode.RangeTable{unicode.Arabic}},
	{"Hindi", []*unicode.RangeTable{unicode.Devanagari}},
}

type genreRule struct {
	language string
	keywords []string
}

var genreRules = []genreRule{
	{"Hindi", []string{"bollywood", "filmi", "desi", "indian"}},
	{"Punjabi", []string{"punjabi", "bhangra"}},
	{"Tamil", []string{"tamil", "kollywood"}},
	{"Korean", []string{"k-pop", "korean"}},
	{"Japanese", []string{"j-pop", "japanese", "anime"}},
	{"Chinese", []string{"mandopop", "cantopop", "c-pop", "chinese"}},
	{"Spanish", []string{"latin", "reggaeton", "spanish", "mariachi"}},
}

// artistLanguages covers well-known acts whose titles and genre tags are
// frequently in English despite the act's catalog language.
var artistLanguages = map[string]string{
	"bts":            "Korean",
	"blackpink":      "Korean",
	"stray kids":     "Korean",
	"twice":          "Korean",
	"arijit singh":   "Hindi",
	"shreya ghoshal": "Hindi",
	"diljit dosanjh": "Punjabi",
	"yoasobi":        "Japanese",
	"jay chou":       "Chinese",
	"bad bunny":      "Spanish",
	"j balvin":       "Spanish",
}

// ClassifyLanguage labels a track by layered heuristics, checked in order of
// confidence: title script, then genre keywords, then the known-artist list.
// Tracks nothing claims are labelled International.
func ClassifyLanguage(title string, genres []string, artistDisplay string) string {
	for _, rule := range scriptRules {
		for _, r := range title {
			if unicode.In(r, rule.ranges...) {
				return rule.language
			}
		}
	}

	for _, rule := range genreRules {
		for _, genre := range genres {
			genre = strings.ToLower(genre)
			for _, keyword := range rule.keywords {
				if strings.Contains(genre, keyword) {
					return rule.language
				}
			}
		}
	}

	display := strings.ToLower(artistDisplay)
	for artist, language := range artistLanguages {
		if strings.Contains(display, artist) {
			return language
		}
	}

	return defaultLanguage
}
