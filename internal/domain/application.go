package domain

import (
	"fmt"
	"regexp"
)

// Pattern is a compiled classification pattern.
// The empty pattern matches every string.
type Pattern struct {
	source   string
	re       *regexp.Regexp
	matchAll bool
}

// CompilePattern compiles a regular expression used for substring search.
func CompilePattern(source string) (Pattern, error) {
	if source == "" {
		return Pattern{matchAll: true}, nil
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: invalid pattern %q: %v", ErrConfiguration, source, err)
	}
	return Pattern{source: source, re: re}, nil
}

// Match reports whether the pattern occurs anywhere in s.
func (p Pattern) Match(s string) bool {
	if p.matchAll {
		return true
	}
	return p.re != nil && p.re.MatchString(s)
}

// MatchesAll reports whether this is the empty pattern.
func (p Pattern) MatchesAll() bool {
	return p.matchAll
}

func (p Pattern) String() string {
	return p.source
}

// ApplicationInfo is a classification rule plus its display title.
// It is immutable after construction.
type ApplicationInfo struct {
	Title         string
	WmName        Pattern
	Tab           Pattern
	IsDistracting bool
}

// NewApplicationInfo builds a rule. At least one of the patterns must be set.
func NewApplicationInfo(title, wmNameRe, tabRe string, isDistracting bool) (*ApplicationInfo, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: application title cannot be empty", ErrConfiguration)
	}
	if wmNameRe == "" && tabRe == "" {
		return nil, fmt.Errorf("%w: application [%s] has empty wm_name and tab", ErrConfiguration, title)
	}

	wmName, err := CompilePattern(wmNameRe)
	if err != nil {
		return nil, fmt.Errorf("application [%s] wm_name: %w", title, err)
	}
	tab, err := CompilePattern(tabRe)
	if err != nil {
		return nil, fmt.Errorf("application [%s] tab: %w", title, err)
	}

	return &ApplicationInfo{
		Title:         title,
		WmName:        wmName,
		Tab:           tab,
		IsDistracting: isDistracting,
	}, nil
}

// BreakTimeApplicationInfo is the rule injected for the lock screen.
func BreakTimeApplicationInfo() *ApplicationInfo {
	info, err := NewApplicationInfo(TitleBreakTime, WmClassLockScreen, "", false)
	if err != nil {
		panic(err)
	}
	return info
}

// Matches reports whether the rule matches the window identity.
func (i *ApplicationInfo) Matches(wmClass, windowName string) bool {
	return i.WmName.Match(wmClass) && i.Tab.Match(windowName)
}

// Equal compares rules by value. Two nil rules are equal.
func (i *ApplicationInfo) Equal(other *ApplicationInfo) bool {
	if i == nil || other == nil {
		return i == other
	}
	return i.Title == other.Title &&
		i.WmName.source == other.WmName.source &&
		i.Tab.source == other.Tab.source &&
		i.IsDistracting == other.IsDistracting
}

// ApplicationInfoMatcher resolves an activity to at most one rule.
// Distracting rules are consulted before detailed ones.
type ApplicationInfoMatcher struct {
	detailed    []*ApplicationInfo
	distracting []*ApplicationInfo
}

// NewApplicationInfoMatcher creates a matcher over two ordered rule lists.
func NewApplicationInfoMatcher(detailed, distracting []*ApplicationInfo) *ApplicationInfoMatcher {
	return &ApplicationInfoMatcher{detailed: detailed, distracting: distracting}
}

// Detailed returns the detailed rules in matching order.
func (m *ApplicationInfoMatcher) Detailed() []*ApplicationInfo {
	return m.detailed
}

// Distracting returns the distracting rules in matching order.
func (m *ApplicationInfoMatcher) Distracting() []*ApplicationInfo {
	return m.distracting
}

// All returns distracting rules followed by detailed rules.
func (m *ApplicationInfoMatcher) All() []*ApplicationInfo {
	all := make([]*ApplicationInfo, 0, len(m.distracting)+len(m.detailed))
	all = append(all, m.distracting...)
	return append(all, m.detailed...)
}

// Match returns the first rule matching the window identity, or nil.
func (m *ApplicationInfoMatcher) Match(wmClass, windowName string) *ApplicationInfo {
	if info := findIn(m.distracting, wmClass, windowName); info != nil {
		return info
	}
	return findIn(m.detailed, wmClass, windowName)
}

// SetIfMatched attaches the matching rule to the activity.
// The activity is left untouched when nothing matches.
func (m *ApplicationInfoMatcher) SetIfMatched(a *Activity) {
	if info := m.Match(a.WmClass, a.WindowName); info != nil {
		a.SetApplicationInfo(info)
	}
}

func findIn(infos []*ApplicationInfo, wmClass, windowName string) *ApplicationInfo {
	for _, info := range infos {
		if info.Matches(wmClass, windowName) {
			return info
		}
	}
	return nil
}
