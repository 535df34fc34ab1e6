package storet

import "time"

// dateLayouts are the date shapes seen in STORET exports.
var dateLayouts = []struct {
	layout string
	ok     func(string) bool
}{
	{"20060102", func(s string) bool { return len(s) == 8 && allDigits(s) }},
	{"2006-01-02", func(s string) bool { return len(s) == 10 && s[4] == '-' && s[7] == '-' }},
	{"1/2/2006", func(s string) bool { return len(s) >= 8 && len(s) <= 10 && s[len(s)-5] == '/' }},
	{"2006/1/2", func(s string) bool { return len(s) >= 8 && len(s) <= 10 && s[4] == '/' }},
}

// NormalizeDate converts a recognised date to YYYY-MM-DD. Anything else,
// including impossible calendar dates, is returned unchanged.
func NormalizeDate(s string) string {
	for _, l := range dateLayouts {
		if !l.ok(s) {
			continue
		}
		if t, err := time.Parse(l.layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
