package database

import (
	"time"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
)

// TsunamiStat is one snapshot's statistics row.
type TsunamiStat struct {
	RunID      string    `gorm:"primaryKey;column:run_id;type:text"`
	Step       int       `gorm:"primaryKey;column:step;autoIncrement:false"`
	SimTime    float64   `gorm:"column:sim_time;not null"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null"`

	MaxEta          float64 `gorm:"column:max_eta"`
	MinEta          float64 `gorm:"column:min_eta"`
	MaxCrest        float64 `gorm:"column:max_crest"`
	MeanPositiveEta float64 `gorm:"column:mean_positive_eta"`
	MaxFlowDepth    float64 `gorm:"column:max_flow_depth"`
	MaxRunup        float64 `gorm:"column:max_runup"`
	InundatedArea   float64 `gorm:"column:inundated_area"`
	InundatedCells  int     `gorm:"column:inundated_cells"`
	WetCells        int     `gorm:"column:wet_cells"`
	MaxVelocity     float64 `gorm:"column:max_velocity"`
	MaxMomentumFlux float64 `gorm:"column:max_momentum_flux"`
	MeanU           float64 `gorm:"column:mean_u"`
	MeanV           float64 `gorm:"column:mean_v"`
}

// TableName specifies the table name for TsunamiStat
func (TsunamiStat) TableName() string {
	return "tsunami_stats"
}

// NewTsunamiStat converts a record of runID.
func NewTsunamiStat(runID string, recordedAt time.Time, r stats.Record) TsunamiStat {
	return TsunamiStat{
		RunID:           runID,
		Step:            r.Step,
		SimTime:         r.Time,
		RecordedAt:      recordedAt,
		MaxEta:          r.MaxEta,
		MinEta:          r.MinEta,
		MaxCrest:        r.MaxCrest,
		MeanPositiveEta: r.MeanPositiveEta,
		MaxFlowDepth:    r.MaxFlowDepth,
		MaxRunup:        r.MaxRunup,
		InundatedArea:   r.InundatedArea,
		InundatedCells:  r.InundatedCells,
		WetCells:        r.WetCells,
		MaxVelocity:     r.MaxVelocity,
		MaxMomentumFlux: r.MaxMomentumFlux,
		MeanU:           r.MeanU,
		MeanV:           r.MeanV,
	}
}

// Record converts the row back.
func (s TsunamiStat) Record() stats.Record {
	return stats.Record{
		Step:            s.Step,
		Time:            s.SimTime,
		MaxEta:          s.MaxEta,
		MinEta:          s.MinEta,
		MaxCrest:        s.MaxCrest,
		MeanPositiveEta: s.MeanPositiveEta,
		MaxFlowDepth:    s.MaxFlowDepth,
		MaxRunup:        s.MaxRunup,
		InundatedArea:   s.InundatedArea,
		InundatedCells:  s.InundatedCells,
		WetCells:        s.WetCells,
		MaxVelocity:     s.MaxVelocity,
		MaxMomentumFlux: s.MaxMomentumFlux,
		MeanU:           s.MeanU,
		MeanV:           s.MeanV,
	}
}
