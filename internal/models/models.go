package models

import "time"

// Session statuses. Transitions only move forward through
// pending -> analyzed -> generating -> ready; any state may fall into
// failed, which is terminal.
const (
	StatusPending    = "pending"
	StatusAnalyzed   = "analyzed"
	StatusGenerating = "generating"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// TerminalStatus reports whether no further automatic transition is expected.
func TerminalStatus(status string) bool {
	return status == StatusReady || status == StatusFailed
}

// Profile is the immutable biometric snapshot captured at intake.
type Profile struct {
	Age              int      `json:"age" validate:"required,min=13,max=100"`
	Sex              string   `json:"sex" validate:"required,oneof=male female other"`
	HeightCm         float64  `json:"heightCm" validate:"required,min=100,max=250"`
	WeightKg         float64  `json:"weightKg" validate:"required,min=30,max=300"`
	Level            string   `json:"level" validate:"required,oneof=novato intermedio avanzado"`
	Goal             string   `json:"goal" validate:"required,oneof=definicion masa mixto"`
	WeeklyTime       float64  `json:"weeklyTime" validate:"required,min=1,max=14"`
	StressLevel      int      `json:"stressLevel,omitempty" validate:"omitempty,min=1,max=10"`
	SleepQuality     int      `json:"sleepQuality,omitempty" validate:"omitempty,min=1,max=10"`
	DisciplineRating int      `json:"disciplineRating,omitempty" validate:"omitempty,min=1,max=10"`
	BodyType         string   `json:"bodyType,omitempty" validate:"omitempty,oneof=ectomorph mesomorph endomorph"`
	SpecificGoals    []string `json:"specificGoals,omitempty"`
	FocusZone        string   `json:"focusZone,omitempty" validate:"omitempty,oneof=upper lower abs full"`
	Notes            string   `json:"notes,omitempty"`
}

// StageStats are the projected 0-100 attributes for a timeline stage.
type StageStats struct {
	Strength   float64 `json:"strength" validate:"min=0,max=100"`
	Aesthetics float64 `json:"aesthetics" validate:"min=0,max=100"`
	Endurance  float64 `json:"endurance" validate:"min=0,max=100"`
	Mental     float64 `json:"mental" validate:"min=0,max=100"`
}

// TimelineEntry describes one projected stage (month 0, 4, 8 or 12).
type TimelineEntry struct {
	Month        int         `json:"month" validate:"oneof=0 4 8 12"`
	Title        string      `json:"title,omitempty"`
	Description  string      `json:"description,omitempty"`
	Mental       string      `json:"mental" validate:"required"`
	Stats        *StageStats `json:"stats,omitempty"`
	ImagePrompt  string      `json:"image_prompt,omitempty"`
	Expectations []string    `json:"expectations,omitempty"`
	Risks        []string    `json:"risks,omitempty"`
}

// OverlayPoint is a spatial annotation in relative image coordinates.
type OverlayPoint struct {
	X     float64 `json:"x" validate:"min=0,max=1"`
	Y     float64 `json:"y" validate:"min=0,max=1"`
	Label string  `json:"label" validate:"required,max=120"`
}

// Timeline keys the four projection stages.
type Timeline struct {
	M0  TimelineEntry `json:"m0"`
	M4  TimelineEntry `json:"m4"`
	M8  TimelineEntry `json:"m8"`
	M12 TimelineEntry `json:"m12"`
}

// Insights is the structured output of the image-variant analysis call.
type Insights struct {
	InsightsText string                    `json:"insightsText" validate:"required"`
	Timeline     Timeline                  `json:"timeline"`
	Overlays     map[string][]OverlayPoint `json:"overlays,omitempty" validate:"omitempty,dive,dive"`
}

// VisionAnalysis is the video-variant analysis output: an identity anchor,
// a narrative and the fully assembled video-generation prompt.
type VisionAnalysis struct {
	UserVisualAnchor        string          `json:"user_visual_anchor" validate:"required"`
	HeroNarrative           string          `json:"hero_narrative" validate:"required"`
	VeoPrompt               string          `json:"veo_prompt" validate:"required"`
	EstimatedTransformation *Transformation `json:"estimated_transformation,omitempty"`
}

// Transformation summarises the expected physical and mental change.
type Transformation struct {
	Physical string `json:"physical"`
	Mental   string `json:"mental"`
}

// Video records a generated transformation video.
type Video struct {
	StoragePath     string `json:"storagePath"`
	DurationSeconds int    `json:"durationSeconds"`
	Resolution      string `json:"resolution"`
}

// Session is the central entity spanning intake, analysis and video
// generation, keyed by its public shareId.
type Session struct {
	ShareID          string
	Email            string
	Input            Profile
	PhotoPath        string
	Insights         *Insights
	Analysis         *VisionAnalysis
	Assets           map[string]string
	Video            *Video
	Status           string
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	AnalyzedAt       *time.Time
	VideoGeneratedAt *time.Time
}

// RateLimitCounter is a daily counter keyed by "{identifier}-{UTC day}".
type RateLimitCounter struct {
	ID         string
	Identifier string
	Day        string
	Count      int
	UpdatedAt  time.Time
}

// Lead is a lightweight contact capture, independent of the session flow.
type Lead struct {
	Email     string
	Source    string
	Consent   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
