package models

import "time"

// Assessment is one stored classification.
type Assessment struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	ChildName string    `db:"child_name" json:"child_name,omitempty"`
	AgeMonths int       `db:"age_months" json:"age_months"`
	WeightKg  float64   `db:"weight_kg" json:"weight_kg"`
	HeightCm  float64   `db:"height_cm" json:"height_cm"`
	Strategy  string    `db:"strategy" json:"strategy"`
	Status    string    `db:"status" json:"status"`
	ZScore    *float64  `db:"z_score" json:"z_score,omitempty"`
	BMI       *float64  `db:"bmi" json:"bmi,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
