package domain

import (
	"sort"
	"time"
)

// ActivityStat accumulates work and off time for one title.
type ActivityStat struct {
	WorkTime time.Duration
	OffTime  time.Duration
}

// NewActivityStat creates a stat seeded from a finished activity.
func NewActivityStat(a *Activity) (*ActivityStat, error) {
	stat := &ActivityStat{}
	if err := stat.Update(a); err != nil {
		return nil, err
	}
	return stat, nil
}

// Update adds the activity time to the work or off bucket.
func (s *ActivityStat) Update(a *Activity) error {
	span, err := a.finished("updating stats")
	if err != nil {
		return err
	}

	if a.IsWorkTime {
		s.WorkTime += span.Duration
	} else {
		s.OffTime += span.Duration
	}
	return nil
}

// Total returns work and off time together.
func (s ActivityStat) Total() time.Duration {
	return s.WorkTime + s.OffTime
}

// StatHolder maps titles to accumulated stats and keeps grand totals
// across every activity folded in, matched or not.
type StatHolder struct {
	stats         map[string]*ActivityStat
	order         []string
	TotalWorkTime time.Duration
	TotalOffTime  time.Duration
}

// NewStatHolder creates a holder and replays the given finished activities.
func NewStatHolder(activities []*Activity) (*StatHolder, error) {
	h := &StatHolder{stats: make(map[string]*ActivityStat)}
	for _, a := range activities {
		if err := h.UpdateStat(a); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// UpdateStat folds one finished activity into the totals and its bucket.
// Unmatched activities are bucketed under TitleOthers.
func (h *StatHolder) UpdateStat(a *Activity) error {
	span, err := a.finished("updating stats")
	if err != nil {
		return err
	}

	if a.IsWorkTime {
		h.TotalWorkTime += span.Duration
	} else {
		h.TotalOffTime += span.Duration
	}

	title := a.Title()
	if stat, ok := h.stats[title]; ok {
		return stat.Update(a)
	}

	stat, err := NewActivityStat(a)
	if err != nil {
		return err
	}
	h.insert(title, stat)
	return nil
}

// InitializeStats adds zero stats for rules whose title is not present yet.
// Existing entries are never touched.
func (h *StatHolder) InitializeStats(infos []*ApplicationInfo) {
	for _, info := range infos {
		if _, ok := h.stats[info.Title]; ok {
			continue
		}
		h.insert(info.Title, &ActivityStat{})
	}
}

// Get returns a copy of the stat for title.
func (h *StatHolder) Get(title string) (ActivityStat, bool) {
	stat, ok := h.stats[title]
	if !ok {
		return ActivityStat{}, false
	}
	return *stat, true
}

// Has reports whether title has a bucket.
func (h *StatHolder) Has(title string) bool {
	_, ok := h.stats[title]
	return ok
}

// Len returns the number of buckets.
func (h *StatHolder) Len() int {
	return len(h.order)
}

// Titles returns bucket titles in insertion order.
func (h *StatHolder) Titles() []string {
	titles := make([]string, len(h.order))
	copy(titles, h.order)
	return titles
}

// Each calls fn for every bucket in insertion order.
func (h *StatHolder) Each(fn func(title string, stat ActivityStat)) {
	for _, title := range h.order {
		fn(title, *h.stats[title])
	}
}

// GroupWorkTime sums work time over the named buckets.
// A missing title yields a *MissingTitleError.
func (h *StatHolder) GroupWorkTime(titles []string) (time.Duration, error) {
	var total time.Duration
	for _, title := range titles {
		if !h.Has(title) {
			return 0, &MissingTitleError{Title: title}
		}
		total += h.stats[title].WorkTime
	}
	return total, nil
}

// TitleStat is a bucket paired with its title.
type TitleStat struct {
	Title string
	ActivityStat
}

// Sorted returns buckets ordered by work time, then off time, descending.
// Ties keep insertion order.
func (h *StatHolder) Sorted() []TitleStat {
	result := make([]TitleStat, 0, len(h.order))
	h.Each(func(title string, stat ActivityStat) {
		result = append(result, TitleStat{Title: title, ActivityStat: stat})
	})
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].WorkTime != result[j].WorkTime {
			return result[i].WorkTime > result[j].WorkTime
		}
		return result[i].OffTime > result[j].OffTime
	})
	return result
}

func (h *StatHolder) insert(title string, stat *ActivityStat) {
	h.stats[title] = stat
	h.order = append(h.order, title)
}
