package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when/rules"
)

// Rules for expressions the English rule set leaves out or resolves
// differently. They are added after it, so they are applied last.

var (
	atHourInner  = regexp.MustCompile(`(?i)at\s+(\d{1,2})`)
	meridiemNext = regexp.MustCompile(`(?i)^\s*(?:[ap]\.?m\b|[ap]\b)`)
	pmContext    = regexp.MustCompile(`(?i)\b(?:tonight|night|evening|afternoon)\b`)
	nightContext = regexp.MustCompile(`(?i)\b(?:tonight|night)\b`)
	isoInner     = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	slashInner   = regexp.MustCompile(`(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?`)

	dayParts = map[string]int{"morning": 9, "afternoon": 15, "evening": 18, "night": 20, "tonight": 20}
)

func extraRules() []rules.Rule {
	return []rules.Rule{
		dayAfterTomorrowRule(),
		namedTimeRule(),
		dayPartRule(),
		isoDateRule(),
		slashDateRule(),
		atHourRule(),
	}
}

func dayAfterTomorrowRule() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile(`(?i)(?:\W|^)(day\s+after\s+tomorrow)(?:\W|$)`),
		Applier: func(_ *rules.Match, c *rules.Context, _ *rules.Options, _ time.Time) (bool, error) {
			c.Duration = 48 * time.Hour
			return true, nil
		},
	}
}

func namedTimeRule() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile(`(?i)(?:\W|^)(noon|midday|midnight|lunch(?:time)?)(?:\W|$)`),
		Applier: func(m *rules.Match, c *rules.Context, _ *rules.Options, _ time.Time) (bool, error) {
			hour := 12
			if strings.Contains(strings.ToLower(m.Text), "midnight") {
				hour = 0
			}
			c.Hour, c.Minute = intp(hour), intp(0)
			return true, nil
		},
	}
}

// dayPartRule pins the hour of a part of the day unless a clock time is also given.
func dayPartRule() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile(`(?i)(?:\W|^)((?:in\s+the\s+|this\s+)?(?:morning|afternoon|evening|night|tonight))(?:\W|$)`),
		Applier: func(m *rules.Match, c *rules.Context, _ *rules.Options, _ time.Time) (bool, error) {
			if clockPattern.MatchString(c.Text) {
				return false, nil
			}
			lower := strings.ToLower(m.Text)
			for word, hour := range dayParts {
				if strings.Contains(lower, word) {
					c.Hour, c.Minute = intp(hour), intp(0)
					return true, nil
				}
			}
			return false, nil
		},
	}
}

func isoDateRule() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile(`(?:\W|^)(\d{4}-\d{1,2}-\d{1,2})(?:\W|$)`),
		Applier: func(m *rules.Match, c *rules.Context, _ *rules.Options, ref time.Time) (bool, error) {
			groups := isoInner.FindStringSubmatch(m.Text)
			if groups == nil {
				return false, nil
			}
			year, _ := strconv.Atoi(groups[1])
			month, _ := strconv.Atoi(groups[2])
			day, _ := strconv.Atoi(groups[3])
			return shiftToDate(c, ref, year, time.Month(month), day), nil
		},
	}
}

// slashDateRule reads MM/DD. Without a year it needs a leading preposition,
// so fractions like "1/2 cup" are left alone.
func slashDateRule() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile(`(?i)(?:\W|^)((?:on|by|due|until|before|from|for)\s+\d{1,2}/\d{1,2}(?:/(?:\d{4}|\d{2}))?|\d{1,2}/\d{1,2}/(?:\d{4}|\d{2}))(?:\W|$)`),
		Applier: func(m *rules.Match, c *rules.Context, _ *rules.Options, ref time.Time) (bool, error) {
			groups := slashInner.FindStringSubmatch(m.Text)
			if groups == nil {
				return false, nil
			}
			month, _ := strconv.Atoi(groups[1])
			day, _ := strconv.Atoi(groups[2])
			year := ref.Year()
			if groups[3] != "" {
				year, _ = strconv.Atoi(groups[3])
				if len(groups[3]) == 2 {
					year += 2000
				}
			}
			return shiftToDate(c, ref, year, time.Month(month), day), nil
		},
	}
}

// atHourRule reads "at N" without am/pm as a 24 h hour, shifted to the
// afternoon when the phrase talks about the evening. "12 tonight" is midnight.
func atHourRule() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile(`(?i)(?:\W|^)(at\s+\d{1,2})(?:[^\w:]|$)`),
		Applier: func(m *rules.Match, c *rules.Context, _ *rules.Options, _ time.Time) (bool, error) {
			loc := atHourInner.FindStringSubmatchIndex(m.Text)
			if loc == nil {
				return false, nil
			}
			phrase := strings.ToLower(m.Text[loc[0]:loc[1]])
			if i := strings.Index(strings.ToLower(c.Text), phrase); i >= 0 && meridiemNext.MatchString(c.Text[i+len(phrase):]) {
				return false, nil
			}
			hour, _ := strconv.Atoi(m.Text[loc[2]:loc[3]])
			switch {
			case hour > 23:
				return false, nil
			case hour == 12 && nightContext.MatchString(c.Text):
				hour = 0
				c.Duration += 24 * time.Hour
			case hour >= 1 && hour <= 11 && pmContext.MatchString(c.Text):
				hour += 12
			}
			c.Hour, c.Minute = intp(hour), intp(0)
			return true, nil
		},
	}
}

// shiftToDate moves the result to a calendar day through the duration, which
// keeps an invalid day such as 02/30 from rolling into the next month.
func shiftToDate(c *rules.Context, ref time.Time, year int, month time.Month, day int) bool {
	target := time.Date(year, month, day, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
	if target.Year() != year || target.Month() != month || target.Day() != day {
		return false
	}
	c.Duration = target.Sub(ref)
	return true
}

func intp(v int) *int { return &v }
