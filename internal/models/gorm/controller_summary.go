package gorm

import "time"

// ControllerSummary is one row per completed controller session
// (after merging short disconnects), written by the Controller
// Summarizer.
type ControllerSummary struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Callsign string `gorm:"column:callsign;type:varchar(20);not null;index:idx_controller_summary_identity"`
	CID      int64  `gorm:"column:cid;not null;index:idx_controller_summary_identity"`
	Name     string `gorm:"column:name;type:varchar(100)"`
	Rating   int    `gorm:"column:rating"`
	Facility int    `gorm:"column:facility"`
	Server   string `gorm:"column:server;type:varchar(20)"`

	SessionStartTime     time.Time  `gorm:"column:session_start_time;not null"`
	SessionEndTime       *time.Time `gorm:"column:session_end_time;index"`
	SessionDurationMinutes float64  `gorm:"column:session_duration_minutes"`

	TotalAircraftHandled int         `gorm:"column:total_aircraft_handled"`
	PeakAircraftCount    int         `gorm:"column:peak_aircraft_count"`
	HourlyAircraftBreakdown CountByHour `gorm:"column:hourly_aircraft_breakdown;type:jsonb;default:'{}'"`
	FrequenciesUsed      StringList         `gorm:"column:frequencies_used;type:jsonb;default:'[]'"`
	AircraftDetails      AircraftDetailList `gorm:"column:aircraft_details;type:jsonb;default:'[]'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (ControllerSummary) TableName() string {
	return "controller_summaries"
}

// ControllerArchive is the detail history of completed controller
// connections, moved out of the live controllers table.
type ControllerArchive struct {
	ID                  int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Callsign            string    `gorm:"column:callsign;type:varchar(20);not null;index"`
	CID                 int64     `gorm:"column:cid;not null"`
	Facility            int       `gorm:"column:facility"`
	Frequency           string    `gorm:"column:frequency;type:varchar(10)"`
	LogonTime           time.Time `gorm:"column:logon_time;not null"`
	UpstreamLastUpdated time.Time `gorm:"column:upstream_last_updated;not null"`

	ArchivedAt time.Time `gorm:"column:archived_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (ControllerArchive) TableName() string {
	return "controllers_archive"
}
