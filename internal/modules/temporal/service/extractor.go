package service

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/en"

	"murmur/internal/modules/temporal/domain"
)

var (
	clockPattern    = regexp.MustCompile(`(?i)\d{1,2}:\d{2}|\d\s*(?:[ap]\.?m\.?|[ap])(?:\W|$)|\b(?:noon|midday|midnight)\b|\bat\s+\d{1,2}\b`)
	dayPartPattern  = regexp.MustCompile(`(?i)\b(?:morning|afternoon|evening|night|tonight|lunch)\b`)
	shortDuration   = regexp.MustCompile(`(?i)\b(?:(?:in|within)\s+\S+\s+(?:seconds?|secs?|minutes?|mins?|hours?|hrs?)|\S+\s+(?:seconds?|minutes?|mins?|hours?|hrs?)\s+ago)\b`)
	longDuration    = regexp.MustCompile(`(?i)\b(?:(?:in|within)\s+\S+\s+(?:days?|weeks?|months?|years?)|\S+\s+(?:days?|weeks?|months?|years?)\s+ago)\b`)
	dateVocabulary  = regexp.MustCompile(`(?i)\b(?:today|tonight|tomorrow|tmr|yesterday|mon|tue|wed|thu|fri|sat|sun|(?:mon|tues|wednes|thurs|fri|satur|sun)day|jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b|\d{1,4}[/-]\d{1,2}`)
	leadConnector   = regexp.MustCompile(`(?i)\b(?:on|at|by|in|within)\s+$`)
	conjunction     = regexp.MustCompile(`(?i)\s(?:and|or|then|but)\s`)
	ambiguousMonth  = regexp.MustCompile(`\b(?:may|march)\b`)
	datePreposition = regexp.MustCompile(`(?i)(?:\b(?:on|in|by|of|until|till|before|after|from|since|due)|\d(?:st|nd|rd|th)?)\s*$`)
)

// Extractor finds temporal expressions in English free text. It is pure and safe for concurrent use.
type Extractor struct {
	parser *when.Parser
}

func NewExtractor() *Extractor {
	parser := when.New(&rules.Options{Distance: 5, MatchByOrder: true})
	parser.Add(en.All...)
	parser.Add(extraRules()...)
	return &Extractor{parser: parser}
}

// Extract returns candidates ordered by position. The first one has rank 0.
func (e *Extractor) Extract(text string, ref time.Time) []domain.Candidate {
	out := make([]domain.Candidate, 0)
	offset := 0
	for offset < len(text) {
		rest := text[offset:]
		at, start, end, ok := e.next(rest, ref)
		if !ok {
			break
		}
		abs := offset + start
		offset += end
		source := text[abs:offset]
		if rejectAmbiguousMonth(text, abs, source) {
			continue
		}
		out = append(out, candidate(source, abs, at, len(out)))
	}
	return out
}

// next parses the first expression in text and returns its resolved time and span.
func (e *Extractor) next(text string, ref time.Time) (time.Time, int, int, bool) {
	res, err := e.parser.Parse(text, ref)
	if err != nil || res == nil {
		return time.Time{}, 0, 0, false
	}
	start, end := span(text, res.Index, res.Index+len(res.Text))
	if end <= start {
		return time.Time{}, 0, 0, false
	}
	// The parser clusters nearby expressions; "friday and tomorrow" are two.
	if cut := conjunction.FindStringIndex(text[start:end]); cut != nil {
		if t, s, e2, ok := e.next(text[:start+cut[0]], ref); ok {
			return t, s, e2, true
		}
		tail := start + cut[1]
		if t, s, e2, ok := e.next(text[tail:], ref); ok {
			return t, tail + s, tail + e2, true
		}
		return time.Time{}, 0, 0, false
	}
	return res.Time, start, end, true
}

// span trims separators the rule patterns consume and takes in a leading
// connector such as "on" or "at".
func span(text string, start, end int) (int, int) {
	for start < end && !isWordRune(rune(text[start])) {
		start++
	}
	for end > start && !isWordRune(rune(text[end-1])) {
		end--
	}
	if end < len(text) && text[end] == '.' && strings.HasSuffix(strings.ToLower(text[start:end]), ".m") {
		end++
	}
	if loc := leadConnector.FindStringIndex(text[:start]); loc != nil {
		start = loc[0]
	}
	return start, end
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// rejectAmbiguousMonth drops "may" and "march" used as ordinary words,
// as in "I may 10 times try".
func rejectAmbiguousMonth(text string, abs int, source string) bool {
	loc := ambiguousMonth.FindStringIndex(source)
	if loc == nil {
		return false
	}
	return !datePreposition.MatchString(text[:abs+loc[0]])
}

func candidate(text string, index int, at time.Time, rank int) domain.Candidate {
	timeCertain := clockPattern.MatchString(text) || shortDuration.MatchString(text)
	relative := shortDuration.MatchString(text) || longDuration.MatchString(text)
	dateCertain := relative || dateVocabulary.MatchString(text)

	switch {
	case relative:
	case timeCertain:
		at = time.Date(at.Year(), at.Month(), at.Day(), at.Hour(), at.Minute(), 0, 0, at.Location())
	case dayPartPattern.MatchString(text):
		at = time.Date(at.Year(), at.Month(), at.Day(), at.Hour(), at.Minute(), 0, 0, at.Location())
	default:
		at = time.Date(at.Year(), at.Month(), at.Day(), domain.DefaultHour, 0, 0, 0, at.Location())
	}
	return domain.NewCandidate(text, index, at, rank, dateCertain, timeCertain)
}
