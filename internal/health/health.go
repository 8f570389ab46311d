package health

import (
	"context"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/core/datamodel/student"
	"github.com/jmfitness/studio-management/pkg/sanitize"
)

var (
	ErrMetricsNotFound = internal.NewNotFoundError("Dados de saúde não encontrados", internal.ErrCodeStudentNotFound)
	ErrStudentsOnly    = internal.NewForbiddenError("Acesso negado. Apenas alunos podem adicionar entradas de saúde", internal.ErrCodeRoleNotAllowed)
	ErrStaffOnly       = internal.NewForbiddenError("Apenas a equipe pode registrar avaliações físicas", internal.ErrCodeRoleNotAllowed)
	ErrCoachNotes      = internal.NewForbiddenError("Apenas a equipe pode registrar observações do treinador", internal.ErrCodePermissionDenied)
	ErrEmptyEntry      = internal.NewValidationError("Preencha pelo menos um campo para criar uma entrada", internal.ErrCodeEmptyPayload)
)

type Repository interface {
	// StudentExists reports whether userID is an aluno, deactivated or not.
	StudentExists(ctx context.Context, userID string) (bool, error)
	// GetMetrics returns nil, nil when the student has no metrics row.
	GetMetrics(ctx context.Context, userID string) (*student.HealthMetrics, error)
	SaveMetrics(ctx context.Context, m *student.HealthMetrics) error
	InsertHistory(ctx context.Context, e *student.HealthHistoryEntry) error
	ListHistory(ctx context.Context, userID string) ([]student.HealthHistoryEntry, error)
	InsertMeasurement(ctx context.Context, m *student.BodyMeasurement) error
	ListMeasurements(ctx context.Context, userID string) ([]student.BodyMeasurement, error)
}

// MetricsDTO is shared by registration and the metrics form. Absent fields
// are left as they are.
type MetricsDTO struct {
	HeightCm                    *int     `json:"heightCm" validate:"omitempty,min=100,max=250"`
	WeightKg                    *float64 `json:"weightKg" validate:"omitempty,min=30,max=200"`
	BloodType                   *string  `json:"bloodType" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	HasPainOrDiscomfort         *bool    `json:"hasPainOrDiscomfort"`
	PainDetails                 *string  `json:"painDetails" validate:"omitempty,max=1000"`
	HasInjuries                 *bool    `json:"hasInjuries"`
	InjuryDetails               *string  `json:"injuryDetails" validate:"omitempty,max=1000"`
	HasHeartProblems            *bool    `json:"hasHeartProblems"`
	HasDiabetes                 *bool    `json:"hasDiabetes"`
	HasHypertension             *bool    `json:"hasHypertension"`
	Medications                 *string  `json:"medications" validate:"omitempty,max=1000"`
	Allergies                   *string  `json:"allergies" validate:"omitempty,max=1000"`
	Smokes                      *bool    `json:"smokes"`
	DrinksAlcohol               *bool    `json:"drinksAlcohol"`
	PhysicalActivityLevel       *string  `json:"physicalActivityLevel" validate:"omitempty,oneof=sedentario leve moderado intenso"`
	SleepHours                  *int     `json:"sleepHours" validate:"omitempty,min=0,max=24"`
	CoachObservations           *string  `json:"coachObservations" validate:"omitempty,max=2000"`
	CoachObservationsParticular *string  `json:"coachObservationsParticular" validate:"omitempty,max=2000"`
}

// HasCoachNotes reports whether the payload touches either coach field.
func (d MetricsDTO) HasCoachNotes() bool {
	return d.CoachObservations != nil || d.CoachObservationsParticular != nil
}

// ApplyTo copies the present fields onto m. Free text is stripped of markup
// and blank text clears the column.
func (d MetricsDTO) ApplyTo(m *student.HealthMetrics) {
	if d.HeightCm != nil {
		m.HeightCm = d.HeightCm
	}
	if d.WeightKg != nil {
		m.WeightKg = d.WeightKg
	}
	if d.BloodType != nil {
		m.BloodType = d.BloodType
	}
	setBool(&m.HasPainOrDiscomfort, d.HasPainOrDiscomfort)
	setBool(&m.HasInjuries, d.HasInjuries)
	setBool(&m.HasHeartProblems, d.HasHeartProblems)
	setBool(&m.HasDiabetes, d.HasDiabetes)
	setBool(&m.HasHypertension, d.HasHypertension)
	setBool(&m.Smokes, d.Smokes)
	setBool(&m.DrinksAlcohol, d.DrinksAlcohol)
	setText(&m.PainDetails, d.PainDetails)
	setText(&m.InjuryDetails, d.InjuryDetails)
	setText(&m.Medications, d.Medications)
	setText(&m.Allergies, d.Allergies)
	setText(&m.PhysicalActivityLevel, d.PhysicalActivityLevel)
	setText(&m.CoachObservations, d.CoachObservations)
	setText(&m.CoachObservationsParticular, d.CoachObservationsParticular)
	if d.SleepHours != nil {
		m.SleepHours = d.SleepHours
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setText(dst **string, v *string) {
	if v != nil {
		*dst = sanitize.OptionalText(v)
	}
}

// Metrics is the health record as shown to a caller. The private coach notes
// are omitted for students.
type Metrics struct {
	UserID                      string    `json:"userId"`
	HeightCm                    *int      `json:"heightCm"`
	WeightKg                    *float64  `json:"weightKg"`
	BloodType                   *string   `json:"bloodType"`
	HasPainOrDiscomfort         bool      `json:"hasPainOrDiscomfort"`
	PainDetails                 *string   `json:"painDetails"`
	HasInjuries                 bool      `json:"hasInjuries"`
	InjuryDetails               *string   `json:"injuryDetails"`
	HasHeartProblems            bool      `json:"hasHeartProblems"`
	HasDiabetes                 bool      `json:"hasDiabetes"`
	HasHypertension             bool      `json:"hasHypertension"`
	Medications                 *string   `json:"medications"`
	Allergies                   *string   `json:"allergies"`
	Smokes                      bool      `json:"smokes"`
	DrinksAlcohol               bool      `json:"drinksAlcohol"`
	PhysicalActivityLevel       *string   `json:"physicalActivityLevel"`
	SleepHours                  *int      `json:"sleepHours"`
	CoachObservations           *string   `json:"coachObservations"`
	CoachObservationsParticular *string   `json:"coachObservationsParticular,omitempty"`
	UpdatedAt                   time.Time `json:"updatedAt"`
}

func toMetrics(m *student.HealthMetrics, withPrivateNotes bool) *Metrics {
	out := &Metrics{
		UserID:                m.UserID,
		HeightCm:              m.HeightCm,
		WeightKg:              m.WeightKg,
		BloodType:             m.BloodType,
		HasPainOrDiscomfort:   m.HasPainOrDiscomfort,
		PainDetails:           m.PainDetails,
		HasInjuries:           m.HasInjuries,
		InjuryDetails:         m.InjuryDetails,
		HasHeartProblems:      m.HasHeartProblems,
		HasDiabetes:           m.HasDiabetes,
		HasHypertension:       m.HasHypertension,
		Medications:           m.Medications,
		Allergies:             m.Allergies,
		Smokes:                m.Smokes,
		DrinksAlcohol:         m.DrinksAlcohol,
		PhysicalActivityLevel: m.PhysicalActivityLevel,
		SleepHours:            m.SleepHours,
		CoachObservations:     m.CoachObservations,
		UpdatedAt:             m.UpdatedAt,
	}
	if withPrivateNotes {
		out.CoachObservationsParticular = m.CoachObservationsParticular
	}
	return out
}

type HistoryEntryDTO struct {
	HeightCm *int     `json:"heightCm" validate:"omitempty,min=100,max=250"`
	WeightKg *float64 `json:"weightKg" validate:"omitempty,min=30,max=200"`
	Notes    *string  `json:"notes" validate:"omitempty,max=1000"`
}

type HistoryEntry struct {
	ID        string    `json:"id"`
	HeightCm  *int      `json:"heightCm"`
	WeightKg  *float64  `json:"weightKg"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

type CurrentHealth struct {
	HeightCm  *int      `json:"heightCm"`
	WeightKg  *float64  `json:"weightKg"`
	BloodType *string   `json:"bloodType"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type History struct {
	Current *CurrentHealth `json:"currentHealth"`
	Entries []HistoryEntry `json:"history"`
}

type MeasurementDTO struct {
	WeightKg              float64  `json:"weightKg" validate:"required,min=30,max=200"`
	HeightCm              float64  `json:"heightCm" validate:"required,min=100,max=250"`
	ChestCm               *float64 `json:"chestCm" validate:"omitempty,gt=0,max=300"`
	WaistCm               *float64 `json:"waistCm" validate:"omitempty,gt=0,max=300"`
	AbdomenCm             *float64 `json:"abdomenCm" validate:"omitempty,gt=0,max=300"`
	HipCm                 *float64 `json:"hipCm" validate:"omitempty,gt=0,max=300"`
	RightArmCm            *float64 `json:"rightArmCm" validate:"omitempty,gt=0,max=100"`
	LeftArmCm             *float64 `json:"leftArmCm" validate:"omitempty,gt=0,max=100"`
	RightThighCm          *float64 `json:"rightThighCm" validate:"omitempty,gt=0,max=150"`
	LeftThighCm           *float64 `json:"leftThighCm" validate:"omitempty,gt=0,max=150"`
	RightCalfCm           *float64 `json:"rightCalfCm" validate:"omitempty,gt=0,max=100"`
	LeftCalfCm            *float64 `json:"leftCalfCm" validate:"omitempty,gt=0,max=100"`
	BodyFatPercentage     *float64 `json:"bodyFatPercentage" validate:"omitempty,gt=0,max=80"`
	TricepsSkinfoldMm     *float64 `json:"tricepsSkinfoldMm" validate:"omitempty,gt=0,max=100"`
	SubscapularSkinfoldMm *float64 `json:"subscapularSkinfoldMm" validate:"omitempty,gt=0,max=100"`
	ChestSkinfoldMm       *float64 `json:"chestSkinfoldMm" validate:"omitempty,gt=0,max=100"`
	AxillarySkinfoldMm    *float64 `json:"axillarySkinfoldMm" validate:"omitempty,gt=0,max=100"`
	SuprailiacSkinfoldMm  *float64 `json:"suprailiacSkinfoldMm" validate:"omitempty,gt=0,max=100"`
	AbdominalSkinfoldMm   *float64 `json:"abdominalSkinfoldMm" validate:"omitempty,gt=0,max=100"`
	ThighSkinfoldMm       *float64 `json:"thighSkinfoldMm" validate:"omitempty,gt=0,max=100"`
	Notes                 *string  `json:"notes" validate:"omitempty,max=1000"`
}

type Measurement struct {
	ID string `json:"id"`
	MeasurementDTO
	MeasuredBy string    `json:"measuredBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (d MeasurementDTO) model(userID, measuredBy string) *student.BodyMeasurement {
	return &student.BodyMeasurement{
		UserID:                userID,
		WeightKg:              d.WeightKg,
		HeightCm:              d.HeightCm,
		ChestCm:               d.ChestCm,
		WaistCm:               d.WaistCm,
		AbdomenCm:             d.AbdomenCm,
		HipCm:                 d.HipCm,
		RightArmCm:            d.RightArmCm,
		LeftArmCm:             d.LeftArmCm,
		RightThighCm:          d.RightThighCm,
		LeftThighCm:           d.LeftThighCm,
		RightCalfCm:           d.RightCalfCm,
		LeftCalfCm:            d.LeftCalfCm,
		BodyFatPercentage:     d.BodyFatPercentage,
		TricepsSkinfoldMm:     d.TricepsSkinfoldMm,
		SubscapularSkinfoldMm: d.SubscapularSkinfoldMm,
		ChestSkinfoldMm:       d.ChestSkinfoldMm,
		AxillarySkinfoldMm:    d.AxillarySkinfoldMm,
		SuprailiacSkinfoldMm:  d.SuprailiacSkinfoldMm,
		AbdominalSkinfoldMm:   d.AbdominalSkinfoldMm,
		ThighSkinfoldMm:       d.ThighSkinfoldMm,
		Notes:                 sanitize.OptionalText(d.Notes),
		MeasuredBy:            measuredBy,
	}
}

func toMeasurement(m student.BodyMeasurement) Measurement {
	return Measurement{
		ID: m.ID,
		MeasurementDTO: MeasurementDTO{
			WeightKg:              m.WeightKg,
			HeightCm:              m.HeightCm,
			ChestCm:               m.ChestCm,
			WaistCm:               m.WaistCm,
			AbdomenCm:             m.AbdomenCm,
			HipCm:                 m.HipCm,
			RightArmCm:            m.RightArmCm,
			LeftArmCm:             m.LeftArmCm,
			RightThighCm:          m.RightThighCm,
			LeftThighCm:           m.LeftThighCm,
			RightCalfCm:           m.RightCalfCm,
			LeftCalfCm:            m.LeftCalfCm,
			BodyFatPercentage:     m.BodyFatPercentage,
			TricepsSkinfoldMm:     m.TricepsSkinfoldMm,
			SubscapularSkinfoldMm: m.SubscapularSkinfoldMm,
			ChestSkinfoldMm:       m.ChestSkinfoldMm,
			AxillarySkinfoldMm:    m.AxillarySkinfoldMm,
			SuprailiacSkinfoldMm:  m.SuprailiacSkinfoldMm,
			AbdominalSkinfoldMm:   m.AbdominalSkinfoldMm,
			ThighSkinfoldMm:       m.ThighSkinfoldMm,
			Notes:                 m.Notes,
		},
		MeasuredBy: m.MeasuredBy,
		CreatedAt:  m.CreatedAt,
	}
}
