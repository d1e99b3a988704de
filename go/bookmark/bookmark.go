// Package bookmark resolves the replay positions of the transaction-log
// topics. A bookmark is a UTC instant with 100-nanosecond precision;
// entries strictly after it are excluded from recovery.
package bookmark

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Layout of a bookmark timestamp: UTC with seven fractional digits.
const Layout = "20060102T150405.0000000Z"

// Bookmark is a resolved replay position. Valid is false when no
// filter applies.
type Bookmark struct {
	Time  time.Time
	Valid bool
}

// Excludes reports whether |ts| falls strictly after the bookmark and
// must therefore be discarded from the replay. An invalid (no-filter)
// bookmark excludes nothing.
func (b Bookmark) Excludes(ts time.Time) bool {
	return b.Valid && ts.After(b.Time)
}

// Parse decodes a bookmark timestamp string. The boolean is false when
// no filter applies: an empty string, or a malformed one. A malformed
// bookmark is logged at WARN and downgraded rather than failing the
// recovery pass, since a corrupt bookmark must never block recovery.
//
// A trailing comma-delimited tail is tolerated and truncated.
func Parse(s string) (time.Time, bool) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return time.Time{}, false
	}
	var t, err = time.Parse(Layout, s)
	if err != nil {
		log.WithFields(log.Fields{"bookmark": s, "err": err}).
			Warn("malformed replay bookmark; proceeding without a filter")
		return time.Time{}, false
	}
	return t, true
}
