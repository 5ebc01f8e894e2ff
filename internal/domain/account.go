package domain

import "time"

// RoleAdmin y RoleUser son los nombres de rol que maneja el backend.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"

	// DefaultRoleID es el rol asignado al crear una cuenta.
	DefaultRoleID int64 = 1
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type MeasureWeight string

const (
	MeasureDaily   MeasureWeight = "daily"
	MeasureWeekly  MeasureWeight = "weekly"
	MeasureMonthly MeasureWeight = "monthly"
)

// Account es el perfil de la aplicación ligado uno a uno a una identidad.
type Account struct {
	ID           int64       `json:"id"`
	UserID       string      `json:"user_id"`
	Firstname    string      `json:"firstname"`
	Lastname     string      `json:"lastname"`
	Email        string      `json:"email"`
	Gender       *Gender     `json:"gender"`
	Birthday     string      `json:"birthday"`
	PhoneNumber  string      `json:"phone_number,omitempty"`
	IsActive     bool        `json:"is_active"`
	HealthID     *int64      `json:"health_id,omitempty"`
	ObjectivesID *int64      `json:"training_objectives_id,omitempty"`
	RoleID       int64       `json:"role_id,omitempty"`
	Health       *Health     `json:"health,omitempty"`
	Objectives   *Objectives `json:"training_objectives,omitempty"`
	Role         *Role       `json:"role,omitempty"`
	CreatedAt    *time.Time  `json:"created_at,omitempty"`
	UpdatedAt    *time.Time  `json:"updated_at,omitempty"`
}

// Health guarda las métricas corporales y objetivos de peso de una cuenta.
type Health struct {
	ID             int64         `json:"id,omitempty"`
	Height         float64       `json:"height"`
	Weight         float64       `json:"weight"`
	TargetWeight   float64       `json:"target_weight"`
	TargetTraining int           `json:"target_training"`
	MeasureWeight  MeasureWeight `json:"measure_weight"`
}

// Objectives es el objetivo semanal de entrenamiento de una cuenta.
type Objectives struct {
	ID              int64 `json:"id,omitempty"`
	TrainingPerWeek int   `json:"training_per_week"`
}

type Role struct {
	Name string `json:"name"`
}

// AccountInput son los campos editables al crear una cuenta.
type AccountInput struct {
	Firstname string  `json:"firstname" binding:"required"`
	Lastname  string  `json:"lastname" binding:"required"`
	Birthday  string  `json:"birthday"`
	Gender    *Gender `json:"gender"`
}

// AccountPatch es una actualización parcial de la cuenta; los campos nil no se envían.
type AccountPatch struct {
	Firstname    *string `json:"firstname,omitempty"`
	Lastname     *string `json:"lastname,omitempty"`
	Birthday     *string `json:"birthday,omitempty"`
	Gender       *Gender `json:"gender,omitempty"`
	PhoneNumber  *string `json:"phone_number,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
	HealthID     *int64  `json:"health_id,omitempty"`
	ObjectivesID *int64  `json:"training_objectives_id,omitempty"`
}

// HealthPatch es una actualización parcial de las métricas de salud.
type HealthPatch struct {
	Height         *float64       `json:"height,omitempty"`
	Weight         *float64       `json:"weight,omitempty"`
	TargetWeight   *float64       `json:"target_weight,omitempty"`
	TargetTraining *int           `json:"target_training,omitempty"`
	MeasureWeight  *MeasureWeight `json:"measure_weight,omitempty"`
}

// ObjectivesPatch es una actualización parcial de los objetivos.
type ObjectivesPatch struct {
	TrainingPerWeek *int `json:"training_per_week,omitempty"`
}
