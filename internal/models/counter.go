package models

// Counter backs the sequential document numbering. One row per sequence
// ("offer", "invoice"); the value is incremented inside the creating
// transaction so concurrent creations never observe the same number.
type Counter struct {
	Name  string `gorm:"primaryKey;size:32"`
	Value int64  `gorm:"not null"`
}
