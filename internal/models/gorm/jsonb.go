package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MinutesByKey is a custom JSONB type for the per-sector and
// per-controller minute breakdowns the summarizers persist, grounded
// on the teacher's JSONB scanner/valuer in models/data_provider_config.go
// (there map[string]interface{}; here map[string]float64, since every
// breakdown in this domain is a count of minutes).
type MinutesByKey map[string]float64

// Scan implements sql.Scanner.
func (m *MinutesByKey) Scan(value interface{}) error {
	if value == nil {
		*m = MinutesByKey{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("MinutesByKey.Scan: unsupported type %T", value)
	}
	result := make(MinutesByKey)
	if len(bytes) == 0 {
		*m = result
		return nil
	}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*m = result
	return nil
}

// Value implements driver.Valuer.
func (m MinutesByKey) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// CountByHour is the hourly_aircraft_breakdown JSONB column: hour (as
// a zero-padded "HH" string key, UTC) -> distinct aircraft count.
type CountByHour map[string]int

func (c *CountByHour) Scan(value interface{}) error {
	if value == nil {
		*c = CountByHour{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("CountByHour.Scan: unsupported type %T", value)
	}
	result := make(CountByHour)
	if len(bytes) == 0 {
		*c = result
		return nil
	}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*c = result
	return nil
}

func (c CountByHour) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	return json.Marshal(c)
}

// AircraftDetailList is the aircraft_details JSONB column on a
// controller summary: one entry per distinct aircraft handled.
type AircraftDetailList []AircraftDetail

// AircraftDetail records the first/last time a controller was seen
// matched against one aircraft's transceiver samples.
type AircraftDetail struct {
	Callsign  string `json:"callsign"`
	FirstSeen string `json:"first_seen"`
	LastSeen  string `json:"last_seen"`
}

func (a *AircraftDetailList) Scan(value interface{}) error {
	if value == nil {
		*a = AircraftDetailList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("AircraftDetailList.Scan: unsupported type %T", value)
	}
	var result AircraftDetailList
	if len(bytes) == 0 {
		*a = result
		return nil
	}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*a = result
	return nil
}

func (a AircraftDetailList) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// StringList is a JSONB-backed []string column (frequencies_used).
type StringList []string

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("StringList.Scan: unsupported type %T", value)
	}
	var result StringList
	if len(bytes) == 0 {
		*s = result
		return nil
	}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*s = result
	return nil
}

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}
