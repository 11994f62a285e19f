package types

import (
	"time"
)

// Sample is a single timestamped reading from a model 107 ADR log.  One row
// of the instrument's CSV output maps onto one Sample; the numeric channels
// keep their physical meaning from the logger (stage temperatures in Kelvin,
// magnet current in amperes, magnet voltage in volts, control setpoint in
// Kelvin).  Notes carries the logger's free-text annotation and is an empty
// string when the row had none; it is never a missing value.
type Sample struct {
	Timestamp   time.Time `gorm:"column:time" json:"time"`
	Hours       float64   `gorm:"column:hours" json:"hours"`
	Temp50mK    float64   `gorm:"column:temp_50mk" json:"temp_50mk"`
	TempHe3     float64   `gorm:"column:temp_he3" json:"temp_he3"`
	Temp3K      float64   `gorm:"column:temp_3k" json:"temp_3k"`
	MagnetDiode float64   `gorm:"column:magnet_diode" json:"magnet_diode"`
	Temp50K     float64   `gorm:"column:temp_50k" json:"temp_50k"`
	Setpoint    float64   `gorm:"column:setpoint" json:"setpoint"`
	Current     float64   `gorm:"column:current" json:"current"`
	Voltage     float64   `gorm:"column:voltage" json:"voltage"`
	Notes       string    `gorm:"column:notes" json:"notes"`
	SourcePath  string    `gorm:"column:filepath" json:"filepath,omitempty"`
}

// TableName implements the GORM Tabler interface for the Sample struct
func (Sample) TableName() string {
	return "samples"
}

// Table is a time-ordered, indexable sequence of Samples.  Order is
// established at load time and never changed afterwards; phase boundaries
// are expressed as index positions into a Table.
type Table []Sample

// Slice returns a deep copy of rows [i, j).  Extracted phases must never
// alias the source table, so every slice taken during segmentation goes
// through here.
func (t Table) Slice(i, j int) Table {
	out := make(Table, j-i)
	copy(out, t[i:j])
	return out
}

// Clone returns a deep copy of the whole table.
func (t Table) Clone() Table {
	return t.Slice(0, len(t))
}

// RebaseHours recomputes the Hours channel as elapsed hours from the
// table's own first row.  A zero-length table is left alone.
func (t Table) RebaseHours() {
	if len(t) == 0 {
		return
	}
	start := t[0].Timestamp
	for i := range t {
		t[i].Hours = t[i].Timestamp.Sub(start).Hours()
	}
}

// Span returns the duration between the first and last rows.
func (t Table) Span() time.Duration {
	if len(t) < 2 {
		return 0
	}
	return t[len(t)-1].Timestamp.Sub(t[0].Timestamp)
}
