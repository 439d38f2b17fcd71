// Package gorm holds the GORM-tagged write models used by the
// sector-occupancy engine and the two summarizers, mirrored from the
// teacher's models/gorm package layout and TableName() convention.
package gorm

import "time"

// SectorOccupancy is a half-open interval during which a single
// flight sat inside a single named sector. exit_time is nil while the
// row is open.
type SectorOccupancy struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Callsign  string    `gorm:"column:callsign;type:varchar(20);not null;index:idx_sector_occ_callsign_entry"`
	CID       int64     `gorm:"column:cid;not null"`
	LogonTime time.Time `gorm:"column:logon_time;not null"`
	Departure string    `gorm:"column:departure;type:varchar(8)"`
	Arrival   string    `gorm:"column:arrival;type:varchar(8)"`
	Sector    string    `gorm:"column:sector_name;type:varchar(50);not null;index:idx_sector_occ_sector"`

	EntryTime time.Time  `gorm:"column:entry_time;not null;index:idx_sector_occ_callsign_entry"`
	ExitTime  *time.Time `gorm:"column:exit_time"`

	EntryLat float64 `gorm:"column:entry_lat"`
	EntryLon float64 `gorm:"column:entry_lon"`
	ExitLat  float64 `gorm:"column:exit_lat"`
	ExitLon  float64 `gorm:"column:exit_lon"`

	EntryAltitudeFt int `gorm:"column:entry_altitude_ft"`
	ExitAltitudeFt  int `gorm:"column:exit_altitude_ft"`

	DurationSeconds *int64 `gorm:"column:duration_seconds"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (SectorOccupancy) TableName() string {
	return "flight_sector_occupancy"
}

// IsOpen reports whether this row still lacks an exit time.
func (s *SectorOccupancy) IsOpen() bool {
	return s.ExitTime == nil
}
