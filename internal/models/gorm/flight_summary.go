package gorm

import "time"

// FlightSummary is the one row per completed flight written by the
// Flight Summarizer, mirrored on the teacher's VASyncHistory /
// DataProviderConfig column-tag style.
type FlightSummary struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Callsign  string    `gorm:"column:callsign;type:varchar(20);not null;index:idx_flight_summary_identity"`
	CID       int64     `gorm:"column:cid;not null;index:idx_flight_summary_identity"`
	LogonTime time.Time `gorm:"column:logon_time;not null;index:idx_flight_summary_identity"`

	Departure       string `gorm:"column:departure;type:varchar(8)"`
	Arrival         string `gorm:"column:arrival;type:varchar(8)"`
	AircraftType    string `gorm:"column:aircraft_type;type:varchar(16)"`
	AircraftFAA     string `gorm:"column:aircraft_faa;type:varchar(16)"`
	AircraftShort   string `gorm:"column:aircraft_short;type:varchar(16)"`
	FlightRules     string `gorm:"column:flight_rules;type:varchar(1)"`
	PlannedAltitude int    `gorm:"column:planned_altitude"`
	Route           string `gorm:"column:route;type:text"`
	DepTime         string `gorm:"column:dep_time;type:varchar(8)"`

	TimeOnlineMinutes float64 `gorm:"column:time_online_minutes"`

	ControllerCallsigns MinutesByKey `gorm:"column:controller_callsigns;type:jsonb;default:'{}'"`
	ControllerTimePercentage         *float64 `gorm:"column:controller_time_percentage"`
	AirborneControllerTimePercentage *float64 `gorm:"column:airborne_controller_time_percentage"`

	PrimaryEnrouteSector   string       `gorm:"column:primary_enroute_sector;type:varchar(50)"`
	TotalEnrouteSectors    int          `gorm:"column:total_enroute_sectors"`
	TotalEnrouteTimeMinutes float64     `gorm:"column:total_enroute_time_minutes"`
	SectorBreakdown        MinutesByKey `gorm:"column:sector_breakdown;type:jsonb;default:'{}'"`

	CompletionTime time.Time `gorm:"column:completion_time;not null;index"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (FlightSummary) TableName() string {
	return "flight_summaries"
}

// FlightArchive is the detailed sample history moved out of the live
// flights table when a flight is summarized.
type FlightArchive struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Callsign  string    `gorm:"column:callsign;type:varchar(20);not null;index"`
	CID       int64     `gorm:"column:cid;not null"`
	LogonTime time.Time `gorm:"column:logon_time;not null"`

	Lat           float64   `gorm:"column:latitude"`
	Lon           float64   `gorm:"column:longitude"`
	AltitudeFt    int       `gorm:"column:altitude_ft"`
	HeadingDeg    int       `gorm:"column:heading_deg"`
	GroundspeedKt int       `gorm:"column:groundspeed_kt"`
	SampleTime    time.Time `gorm:"column:sample_time;not null"`

	ArchivedAt time.Time `gorm:"column:archived_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (FlightArchive) TableName() string {
	return "flights_archive"
}
