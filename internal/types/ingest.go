package types

import (
	"time"
)

// Ingest is the audit record written alongside every successful bulk
// append: which file went in, how many rows it carried, and when.  The
// store does not deduplicate, so these records are the only way to tell
// that a file was loaded twice.
type Ingest struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	Filepath   string    `gorm:"column:filepath" json:"filepath"`
	Rows       int       `gorm:"column:row_count" json:"rows"`
	IngestedAt time.Time `gorm:"column:ingested_at" json:"ingested_at"`
}

// TableName implements the GORM Tabler interface for the Ingest struct
func (Ingest) TableName() string {
	return "ingests"
}
