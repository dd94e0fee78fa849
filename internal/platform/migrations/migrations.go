package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the relational schema for the order store. Intended to replace
// adapter-level automigrate when operating against a managed database.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(&orderRecord{})
}

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	Seq           int64     `gorm:"primaryKey;autoIncrement;column:seq"`
	ID            string    `gorm:"uniqueIndex;column:id;type:varchar(64)"`
	Address       string    `gorm:"column:address;type:varchar(200)"`
	Status        string    `gorm:"column:status;type:varchar(32);index"`
	CollectorName string    `gorm:"column:collector_name;type:varchar(100)"`
	LastUpdated   time.Time `gorm:"column:last_updated;index"`
}

func (orderRecord) TableName() string { return "orders" }
