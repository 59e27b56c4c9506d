package message

import (
	"time"

	"golang.org/x/text/language"

	"github.com/arogya-ai/chatview/chat"
)

// MissingTime is shown when a message carries no usable timestamp.
const MissingTime = "--:--"

// Clock formats structured timestamps as hour:minute in the viewer's
// locale convention.
type Clock struct {
	Hour12   bool
	Location *time.Location
}

// twelveHourRegions use a 12-hour clock by convention.
var twelveHourRegions = map[string]bool{
	"US": true, "CA": true, "AU": true, "NZ": true, "IN": true, "PH": true,
	"PK": true, "BD": true, "EG": true, "SA": true, "MY": true, "CO": true,
}

// ClockForLocale derives the clock convention from a BCP-47 tag. Unknown or
// unparseable tags get the en-US convention.
func ClockForLocale(tag string, loc *time.Location) Clock {
	c := Clock{Hour12: true, Location: loc}
	t, err := language.Parse(tag)
	if err != nil {
		return c
	}
	region, conf := t.Region()
	if conf == language.No {
		return c
	}
	c.Hour12 = twelveHourRegions[region.String()]
	return c
}

// Format renders ts for the footer. Pre-formatted strings are returned
// verbatim; structured times become "03:04 PM" or "15:04".
func (c Clock) Format(ts chat.Timestamp) string {
	if s, ok := ts.Preformatted(); ok {
		return s
	}
	t, ok := ts.Time()
	if !ok {
		return MissingTime
	}
	if c.Location != nil {
		t = t.In(c.Location)
	}
	if c.Hour12 {
		return t.Format("03:04 PM")
	}
	return t.Format("15:04")
}
