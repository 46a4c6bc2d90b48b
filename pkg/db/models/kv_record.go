package models

import "time"

// KVRecord stores one JSON-serialized storefront record (users, a client
// session or a client cart) under its key.
type KVRecord struct {
	Key       string    `gorm:"column:record_key;type:varchar(255);primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (KVRecord) TableName() string {
	return "kv_records"
}
