package filter

import (
	"fmt"
	"regexp"
	"time"

	"mastogone/internal/config"
	"mastogone/internal/model"
	"mastogone/internal/util"
)

// Rules decides whether a status qualifies for preview/deletion.
// All checks must pass: age cutoff first, then reply/reblog exclusion,
// then the optional date range, then the optional content patterns.
type Rules struct {
	Cutoff         time.Time
	After          *time.Time
	Before         *time.Time
	IncludeReplies bool
	IncludeReblogs bool

	useRegex bool
	keywords []string
	regexps  []*regexp.Regexp
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339-ish timestamp, normalized to UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD or RFC 3339)", s)
}

// Compile builds Rules from the filter config. cutoff = now - days.
func Compile(now time.Time, cfg config.FiltersConfig) (*Rules, error) {
	r := &Rules{
		Cutoff:         now.UTC().Add(-time.Duration(cfg.Days) * 24 * time.Hour),
		IncludeReplies: cfg.IncludeReplies,
		IncludeReblogs: cfg.IncludeReblogs,
		useRegex:       cfg.Regex,
	}
	if cfg.After != "" {
		t, err := ParseDate(cfg.After)
		if err != nil {
			return nil, fmt.Errorf("after: %w", err)
		}
		r.After = &t
	}
	if cfg.Before != "" {
		t, err := ParseDate(cfg.Before)
		if err != nil {
			return nil, fmt.Errorf("before: %w", err)
		}
		r.Before = &t
	}
	if cfg.Regex {
		for _, p := range cfg.Match {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", p, err)
			}
			r.regexps = append(r.regexps, re)
		}
	} else {
		r.keywords = append(r.keywords, cfg.Match...)
	}
	return r, nil
}

// Matches reports whether a status qualifies. createdAt must be in UTC and
// text must already be stripped of markup.
func (r *Rules) Matches(st model.Status, createdAt time.Time, text string) bool {
	if !createdAt.Before(r.Cutoff) {
		return false
	}
	if st.IsReply() && !r.IncludeReplies {
		return false
	}
	if st.IsReblog() && !r.IncludeReblogs {
		return false
	}
	if r.After != nil && createdAt.Before(*r.After) {
		return false
	}
	if r.Before != nil && createdAt.After(*r.Before) {
		return false
	}
	return r.matchesContent(text)
}

// matchesContent applies the keyword/regex patterns; an empty pattern set
// matches everything.
func (r *Rules) matchesContent(text string) bool {
	if r.useRegex {
		if len(r.regexps) == 0 {
			return true
		}
		for _, re := range r.regexps {
			if re.MatchString(text) {
				return true
			}
		}
		return false
	}
	if len(r.keywords) == 0 {
		return true
	}
	return util.ContainsAnyFold(text, r.keywords)
}
