package dbtime

import (
	"os"
	"strings"
	"sync"
	"time"
)

// NowFunc is swapped in tests.
var NowFunc = time.Now

func Now() time.Time { return NowFunc().UTC() }

var (
	locOnce sync.Once
	appLoc  *time.Location
)

// AppLocation is the school calendar timezone (APP_TIMEZONE, default Asia/Kolkata).
func AppLocation() *time.Location {
	locOnce.Do(func() {
		name := strings.TrimSpace(os.Getenv("APP_TIMEZONE"))
		if name == "" {
			name = "Asia/Kolkata"
		}
		if loc, err := time.LoadLocation(name); err == nil {
			appLoc = loc
			return
		}
		appLoc = time.UTC
	})
	return appLoc
}

// Today truncates now to a calendar date in the app timezone.
func Today() time.Time {
	n := NowFunc().In(AppLocation())
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, AppLocation())
}

// ParseDate accepts YYYY-MM-DD in the app timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), AppLocation())
}
