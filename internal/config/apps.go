package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xvierd/speaking-eye/internal/domain"
)

const (
	wmNameKey    = "wm_name"
	tabKey       = "tab"
	noneSentinel = "none"
)

// AppEntry is one item of an apps list: either a rule or the
// sentinel marking an explicitly empty list.
type AppEntry interface {
	isAppEntry()
}

// RegularEntry declares one application rule.
type RegularEntry struct {
	Title  string
	WmName string
	Tab    string
}

// NoneEntry is the bare "none" item.
type NoneEntry struct{}

func (RegularEntry) isAppEntry() {}
func (NoneEntry) isAppEntry()    {}

// ParseAppEntries decodes a raw apps list as read from YAML. raw may be a
// list of one-key maps, a list holding only "none", or the scalar "none".
func ParseAppEntries(raw any) ([]AppEntry, error) {
	if s, ok := raw.(string); ok {
		if strings.EqualFold(strings.TrimSpace(s), noneSentinel) {
			return []AppEntry{NoneEntry{}}, nil
		}
		return nil, fmt.Errorf("%w: unexpected apps value [%s]", domain.ErrConfiguration, s)
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: incorrect apps list type [%T]", domain.ErrConfiguration, raw)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: apps list is empty", domain.ErrConfiguration)
	}

	entries := make([]AppEntry, 0, len(items))
	for _, item := range items {
		entry, err := parseAppEntry(item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	for _, entry := range entries {
		if _, isNone := entry.(NoneEntry); isNone && len(entries) > 1 {
			return nil, fmt.Errorf("%w: %q should be the only item of an apps list", domain.ErrConfiguration, noneSentinel)
		}
	}

	return entries, nil
}

func parseAppEntry(item any) (AppEntry, error) {
	if s, ok := item.(string); ok && strings.EqualFold(strings.TrimSpace(s), noneSentinel) {
		return NoneEntry{}, nil
	}

	node, ok := toStringMap(item)
	if !ok || len(node) != 1 {
		return nil, fmt.Errorf("%w: application info [%v] should be an object with one title key",
			domain.ErrConfiguration, item)
	}

	var title string
	var rawRule any
	for title, rawRule = range node {
		break
	}

	rule, ok := toStringMap(rawRule)
	if !ok {
		return nil, fmt.Errorf("%w: application [%s] should map to wm_name and tab", domain.ErrConfiguration, title)
	}
	entry := RegularEntry{
		Title:  title,
		WmName: stringValue(rule[wmNameKey]),
		Tab:    stringValue(rule[tabKey]),
	}
	if entry.WmName == "" && entry.Tab == "" {
		return nil, fmt.Errorf("%w: application [%s] has empty wm_name and tab", domain.ErrConfiguration, title)
	}
	return entry, nil
}

// ToApplicationInfos compiles entries into rules. A NoneEntry yields no rules.
func ToApplicationInfos(entries []AppEntry, isDistracting bool) ([]*domain.ApplicationInfo, error) {
	infos := make([]*domain.ApplicationInfo, 0, len(entries))
	for _, entry := range entries {
		switch e := entry.(type) {
		case NoneEntry:
			continue
		case RegularEntry:
			info, err := domain.NewApplicationInfo(e.Title, e.WmName, e.Tab, isDistracting)
			if err != nil {
				return nil, err
			}
			infos = append(infos, info)
		default:
			return nil, fmt.Errorf("%w: unknown apps entry %T", domain.ErrConfiguration, entry)
		}
	}
	return infos, nil
}

// rawEntries converts entries back to the YAML shape.
func rawEntries(entries []AppEntry) any {
	if len(entries) == 1 {
		if _, ok := entries[0].(NoneEntry); ok {
			return noneSentinel
		}
	}
	items := make([]any, 0, len(entries))
	for _, entry := range entries {
		e, ok := entry.(RegularEntry)
		if !ok {
			continue
		}
		rule := map[string]any{}
		if e.WmName != "" {
			rule[wmNameKey] = e.WmName
		}
		if e.Tab != "" {
			rule[tabKey] = e.Tab
		}
		items = append(items, map[string]any{e.Title: rule})
	}
	return items
}

func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Titles lists the titles of regular entries, sorted.
func Titles(entries []AppEntry) []string {
	var titles []string
	for _, entry := range entries {
		if e, ok := entry.(RegularEntry); ok {
			titles = append(titles, e.Title)
		}
	}
	sort.Strings(titles)
	return titles
}
