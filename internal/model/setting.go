package model

import "time"

const (
	SettingPhonePeEnabled = "payment.phonepe.enabled"
	SettingCODEnabled     = "payment.cod.enabled"
)

type Setting struct {
	Key       string `gorm:"primaryKey;column:setting_key;size:64;not null"`
	Value     string `gorm:"size:255;not null"`
	UpdatedAt time.Time
}
