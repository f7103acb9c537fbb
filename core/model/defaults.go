package model

// Fallback documents substituted when a stored configuration is missing or
// malformed. Mirrors the single-period "workday" shape of the legacy
// default configuration.

var defaultDayNames = [7][2]string{
	{"日", "SUN"},
	{"一", "MON"},
	{"二", "TUE"},
	{"三", "WED"},
	{"四", "THR"},
	{"五", "FRI"},
	{"六", "SAT"},
}

// DefaultScheduleDoc returns a seven-day schedule with a single placeholder
// period per day.
func DefaultScheduleDoc() ScheduleDoc {
	days := make([]DayPlan, 7)
	for i, names := range defaultDayNames {
		days[i] = DayPlan{
			Chinese:   names[0],
			English:   names[1],
			ClassList: []Rotation{{PlaceholderSubject}},
			Timetable: DefaultTimetableLabel,
		}
	}
	return ScheduleDoc{DailyClass: days}
}

// DefaultTimetableDoc returns a bell schedule with one all-day period.
func DefaultTimetableDoc() TimetableDoc {
	return TimetableDoc{
		Timetable: map[string]map[string]any{
			DefaultTimetableLabel: {"00:00-23:59": 0},
		},
		Divider: map[string][]int{DefaultTimetableLabel: {}},
	}
}

// DefaultSubjectsDoc marks the configuration as damaged, matching the legacy
// fallback subject table.
func DefaultSubjectsDoc() SubjectsDoc {
	return SubjectsDoc{SubjectName: map[string]string{PlaceholderSubject: "配置文件损坏"}}
}

// DefaultSettingsDoc returns the display settings applied when a class has no
// stored configuration.
func DefaultSettingsDoc() SettingsDoc {
	return SettingsDoc{
		CountdownTarget: "hidden",
		WeekDisplay:     true,
		CSSStyle: map[string]string{
			"--center-font-size":      "30px",
			"--corner-font-size":      "14px",
			"--countdown-font-size":   "28px",
			"--global-border-radius":  "16px",
			"--global-bg-opacity":     "0.3",
			"--container-bg-padding":  "8px 14px",
			"--countdown-bg-padding":  "5px 12px",
			"--container-space":       "16px",
			"--top-space":             "16px",
			"--main-horizontal-space": "8px",
			"--divider-width":         "2px",
			"--divider-margin":        "6px",
			"--triangle-size":         "16px",
			"--sub-font-size":         "20px",
			"--banner-height":         "30px",
		},
	}
}
