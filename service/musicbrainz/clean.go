package musicbrainz

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Words that, inside a parenthetical, mark it as edition/version noise rather
// than part of the title proper.
var noiseWords = []string{
	"acoustic", "bonus", "clean", "club", "demo", "deluxe", "dirty", "edit",
	"explicit", "extended", "instrumental", "karaoke", "live", "main", "mix",
	"mono", "official", "original", "radio", "re-edit", "remaster",
	"remastered", "remix", "remixed", "reprise", "rework", "session", "single",
	"stereo", "studio", "take", "version", "video",
}

const querySymbols = "1234567890!@#$%^&*()-=_+[]{};\"|;'\\<>?/.,~`"

// QueryCleaner trims titles and artist credits down to the stable core used
// as a weak search key across catalogs. Feat. credits, noisy parentheticals
// and trailing dash segments confuse cross-catalog text search far more than
// they help it.
type QueryCleaner struct {
	titleExprs  []*regexp2.Regexp
	artistExprs []*regexp2.Regexp
	yearExpr    *regexp2.Regexp
}

func NewQueryCleaner() *QueryCleaner {
	titlePatterns := []string{
		`(?<core>.+?)\s+(?<enclosed>\(.+\)|\[.+\]|\{.+\})$`,
		`(?<core>.+?)\s+?(?<feat>[\[\(]?(?:feat(?:uring)?|ft)\b\.?)\s*?(?<credits>.+)\s*`,
		`(?<core>.+?)(?:\s+?[\u2010\u2012\u2013\u2014~/-])(?![^(]*\))(?<tail>.*)`,
	}
	artistPatterns := []string{
		`(?<core>.+?)(?:\s*?,)(?<tail>.*)`,
		`(?<core>.+?)(?:\s+?(&|with))(?<tail>.*)`,
	}

	cleaner := &QueryCleaner{
		yearExpr: regexp2.MustCompile(`(20[0-9]{2}|19[0-9]{2})`, 0),
	}
	for _, pattern := range titlePatterns {
		cleaner.titleExprs = append(cleaner.titleExprs, regexp2.MustCompile(`(?i)`+pattern, 0))
	}
	for _, pattern := range artistPatterns {
		cleaner.artistExprs = append(cleaner.artistExprs, regexp2.MustCompile(`(?i)`+pattern, 0))
	}
	return cleaner
}

// balancedBrackets reports whether every bracket pair in text closes; the
// cleaner leaves unbalanced text alone rather than guess.
func balancedBrackets(text string) bool {
	pairs := []struct{ open, close string }{
		{"(", ")"}, {"[", "]"}, {"{", "}"},
	}
	for _, p := range pairs {
		if strings.Count(text, p.open) != strings.Count(text, p.close) {
			return false
		}
	}
	return true
}

// isLikelyNoise reports whether a matched segment is mostly edition/version
// vocabulary, years, and punctuation.
func (qc *QueryCleaner) isLikelyNoise(segment string) bool {
	lowered := strings.ToLower(segment)
	before := utf8.RuneCountInString(lowered)

	for _, word := range noiseWords {
		lowered = strings.ReplaceAll(lowered, word, "")
	}
	lowered, _ = qc.yearExpr.Replace(lowered, "", -1, -1)
	noiseRunes := before - utf8.RuneCountInString(lowered)

	letters := 0
	for _, r := range lowered {
		if strings.ContainsRune(querySymbols, r) {
			noiseRunes++
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return noiseRunes > letters
}

// CleanTitle strips noisy parentheticals, feat. credits, and noisy trailing
// dash segments from a track title. The second return reports whether
// anything changed.
func (qc *QueryCleaner) CleanTitle(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !balancedBrackets(text) {
		return text, false
	}

	for _, expr := range qc.titleExprs {
		match, _ := expr.FindStringMatch(text)
		if match == nil {
			continue
		}
		groups := make(map[string]string)
		for _, name := range expr.GetGroupNames() {
			groups[name] = strings.TrimSpace(match.GroupByName(name).String())
		}

		if enclosed := groups["enclosed"]; enclosed != "" && qc.isLikelyNoise(enclosed) {
			return groups["core"], true
		}
		if groups["feat"] != "" {
			return groups["core"], true
		}
		if tail := groups["tail"]; tail != "" && qc.isLikelyNoise(tail) {
			return groups["core"], true
		}
	}
	return text, false
}

// CleanArtist reduces a joined artist credit to its leading artist.
func (qc *QueryCleaner) CleanArtist(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !balancedBrackets(text) {
		return text, false
	}

	for _, expr := range qc.artistExprs {
		match, _ := expr.FindStringMatch(text)
		if match == nil {
			continue
		}
		core := strings.TrimSpace(match.GroupByName("core").String())
		if len(core) > 2 && unicode.IsLetter([]rune(core)[0]) {
			return core, true
		}
	}
	return text, false
}
