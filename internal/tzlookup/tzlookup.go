// Package tzlookup implements the spec's lookup(lon, lat) -> tz_name
// collaborator. A real geo-to-timezone resolver (tzdb polygon lookup,
// typically backed by a geoip service) is explicitly out of scope (spec
// §1: "timezone-name-from-geolocation lookup" is an external collaborator,
// "not re-specified"); this is a minimal offset-bucket approximation good
// enough to seed a user's timezone from a shared Telegram location, with
// no network dependency.
package tzlookup

import "fmt"

// bucket is one longitude slice mapped to a representative IANA zone.
// Real tzdb boundaries follow political borders, not meridians; this is
// intentionally a coarse approximation, not a production geo-tz resolver.
type bucket struct {
	minLon float64
	maxLon float64
	tzName string
}

var buckets = []bucket{
	{-180, -165, "Pacific/Midway"},
	{-165, -150, "Pacific/Honolulu"},
	{-150, -135, "America/Anchorage"},
	{-135, -120, "America/Los_Angeles"},
	{-120, -105, "America/Denver"},
	{-105, -90, "America/Chicago"},
	{-90, -75, "America/New_York"},
	{-75, -60, "America/Halifax"},
	{-60, -30, "America/Sao_Paulo"},
	{-30, -15, "Atlantic/Azores"},
	{-15, 0, "Europe/Lisbon"},
	{0, 15, "Europe/Paris"},
	{15, 30, "Europe/Moscow"},
	{30, 45, "Europe/Moscow"},
	{45, 60, "Asia/Dubai"},
	{60, 75, "Asia/Karachi"},
	{75, 90, "Asia/Dhaka"},
	{90, 105, "Asia/Bangkok"},
	{105, 120, "Asia/Shanghai"},
	{120, 135, "Asia/Tokyo"},
	{135, 150, "Australia/Sydney"},
	{150, 165, "Pacific/Guadalcanal"},
	{165, 180, "Pacific/Auckland"},
}

// Lookup returns an approximate IANA zone name for the given coordinates.
// lat is accepted for interface symmetry with a real geo-tz resolver but
// is not used by this bucket approximation; latitude bands within the
// same longitude slice rarely disagree on a country's clock.
func Lookup(lon, lat float64) (string, error) {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	for _, b := range buckets {
		if lon >= b.minLon && lon < b.maxLon {
			return b.tzName, nil
		}
	}
	return "", fmt.Errorf("tzlookup: no bucket covers longitude %.2f", lon)
}
