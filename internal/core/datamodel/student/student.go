package student

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Financial struct {
	ID                     string     `gorm:"column:id;type:uuid;primaryKey"`
	UserID                 string     `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	MonthlyFeeValueInCents int64      `gorm:"column:monthly_fee_value_in_cents;not null"`
	PaymentMethod          string     `gorm:"column:payment_method;not null"`
	DueDate                int        `gorm:"column:due_date;not null"`
	Paid                   bool       `gorm:"column:paid;not null"`
	LastPaymentDate        *time.Time `gorm:"column:last_payment_date;type:date"`
	CreatedAt              time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Financial) TableName() string { return "financial" }

func (f *Financial) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type HealthMetrics struct {
	ID                          string    `gorm:"column:id;type:uuid;primaryKey"`
	UserID                      string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	HeightCm                    *int      `gorm:"column:height_cm"`
	WeightKg                    *float64  `gorm:"column:weight_kg;type:numeric(5,2)"`
	BloodType                   *string   `gorm:"column:blood_type;size:3"`
	HasPainOrDiscomfort         bool      `gorm:"column:has_pain_or_discomfort;not null"`
	PainDetails                 *string   `gorm:"column:pain_details"`
	HasInjuries                 bool      `gorm:"column:has_injuries;not null"`
	InjuryDetails               *string   `gorm:"column:injury_details"`
	HasHeartProblems            bool      `gorm:"column:has_heart_problems;not null"`
	HasDiabetes                 bool      `gorm:"column:has_diabetes;not null"`
	HasHypertension             bool      `gorm:"column:has_hypertension;not null"`
	Medications                 *string   `gorm:"column:medications"`
	Allergies                   *string   `gorm:"column:allergies"`
	Smokes                      bool      `gorm:"column:smokes;not null"`
	DrinksAlcohol               bool      `gorm:"column:drinks_alcohol;not null"`
	PhysicalActivityLevel       *string   `gorm:"column:physical_activity_level"`
	SleepHours                  *int      `gorm:"column:sleep_hours"`
	CoachObservations           *string   `gorm:"column:coach_observations"`
	CoachObservationsParticular *string   `gorm:"column:coach_observations_particular"`
	CreatedAt                   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (HealthMetrics) TableName() string { return "health_metrics" }

func (h *HealthMetrics) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

type HealthHistoryEntry struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;type:uuid;not null;index"`
	HeightCm  *int      `gorm:"column:height_cm"`
	WeightKg  *float64  `gorm:"column:weight_kg;type:numeric(5,2)"`
	Notes     *string   `gorm:"column:notes"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (HealthHistoryEntry) TableName() string { return "student_health_history" }

func (h *HealthHistoryEntry) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// BodyMeasurement is one assessment taken by a coach.
type BodyMeasurement struct {
	ID                    string    `gorm:"column:id;type:uuid;primaryKey"`
	UserID                string    `gorm:"column:user_id;type:uuid;not null;index"`
	WeightKg              float64   `gorm:"column:weight_kg;type:numeric(5,2);not null"`
	HeightCm              float64   `gorm:"column:height_cm;type:numeric(5,2);not null"`
	ChestCm               *float64  `gorm:"column:chest_cm;type:numeric(5,2)"`
	WaistCm               *float64  `gorm:"column:waist_cm;type:numeric(5,2)"`
	AbdomenCm             *float64  `gorm:"column:abdomen_cm;type:numeric(5,2)"`
	HipCm                 *float64  `gorm:"column:hip_cm;type:numeric(5,2)"`
	RightArmCm            *float64  `gorm:"column:right_arm_cm;type:numeric(5,2)"`
	LeftArmCm             *float64  `gorm:"column:left_arm_cm;type:numeric(5,2)"`
	RightThighCm          *float64  `gorm:"column:right_thigh_cm;type:numeric(5,2)"`
	LeftThighCm           *float64  `gorm:"column:left_thigh_cm;type:numeric(5,2)"`
	RightCalfCm           *float64  `gorm:"column:right_calf_cm;type:numeric(5,2)"`
	LeftCalfCm            *float64  `gorm:"column:left_calf_cm;type:numeric(5,2)"`
	BodyFatPercentage     *float64  `gorm:"column:body_fat_percentage;type:numeric(5,2)"`
	TricepsSkinfoldMm     *float64  `gorm:"column:triceps_skinfold_mm;type:numeric(5,2)"`
	SubscapularSkinfoldMm *float64  `gorm:"column:subscapular_skinfold_mm;type:numeric(5,2)"`
	ChestSkinfoldMm       *float64  `gorm:"column:chest_skinfold_mm;type:numeric(5,2)"`
	AxillarySkinfoldMm    *float64  `gorm:"column:axillary_skinfold_mm;type:numeric(5,2)"`
	SuprailiacSkinfoldMm  *float64  `gorm:"column:suprailiac_skinfold_mm;type:numeric(5,2)"`
	AbdominalSkinfoldMm   *float64  `gorm:"column:abdominal_skinfold_mm;type:numeric(5,2)"`
	ThighSkinfoldMm       *float64  `gorm:"column:thigh_skinfold_mm;type:numeric(5,2)"`
	Notes                 *string   `gorm:"column:notes"`
	MeasuredBy            string    `gorm:"column:measured_by;type:uuid;not null"`
	CreatedAt             time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (BodyMeasurement) TableName() string { return "body_measurements" }

func (b *BodyMeasurement) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
