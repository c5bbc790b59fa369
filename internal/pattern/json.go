package pattern

import (
	"encoding/json"
	"fmt"
)

// wire mirrors Pattern in a form the encoding/json package can round-trip
// directly, then Pattern.MarshalJSON/UnmarshalJSON translate between the
// two. This is the serialized form stored in the reminder table's
// pattern column.
type wire struct {
	Kind       string      `json:"kind"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
	Countdown  *Countdown  `json:"countdown,omitempty"`
	Cron       *Cron       `json:"cron,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p Pattern) MarshalJSON() ([]byte, error) {
	w := wire{}
	switch p.Kind {
	case KindRecurrence:
		w.Kind = "recurrence"
		w.Recurrence = &p.Recurrence
	case KindCountdown:
		w.Kind = "countdown"
		w.Countdown = &p.Countdown
	case KindCron:
		w.Kind = "cron"
		w.Cron = &p.Cron
	default:
		return nil, fmt.Errorf("pattern: unknown kind %d", p.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Pattern) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "recurrence":
		if w.Recurrence == nil {
			return fmt.Errorf("pattern: recurrence field missing")
		}
		*p = Pattern{Kind: KindRecurrence, Recurrence: *w.Recurrence}
	case "countdown":
		if w.Countdown == nil {
			return fmt.Errorf("pattern: countdown field missing")
		}
		*p = Pattern{Kind: KindCountdown, Countdown: *w.Countdown}
	case "cron":
		if w.Cron == nil {
			return fmt.Errorf("pattern: cron field missing")
		}
		*p = Pattern{Kind: KindCron, Cron: *w.Cron}
	default:
		return fmt.Errorf("pattern: unknown serialized kind %q", w.Kind)
	}
	return nil
}

// Serialize returns the canonical stored form of p.
func Serialize(p Pattern) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Deserialize parses the canonical stored form produced by Serialize.
func Deserialize(s string) (Pattern, error) {
	var p Pattern
	err := json.Unmarshal([]byte(s), &p)
	return p, err
}
