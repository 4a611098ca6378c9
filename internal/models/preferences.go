package models

type SessionType string

const (
	SessionTypeChat  SessionType = "chat"
	SessionTypePhone SessionType = "phone"
	SessionTypeVideo SessionType = "video"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeChat, SessionTypePhone, SessionTypeVideo:
		return true
	default:
		return false
	}
}

type CommunicationStyle string

const (
	CommunicationDirect     CommunicationStyle = "direct"
	CommunicationGentle     CommunicationStyle = "gentle"
	CommunicationStructured CommunicationStyle = "structured"
	CommunicationCasual     CommunicationStyle = "casual"
)

type PersonalityPreference string

const (
	PersonalityEmpathetic PersonalityPreference = "empathetic"
	PersonalityMotivating PersonalityPreference = "motivating"
	PersonalityAnalytical PersonalityPreference = "analytical"
	PersonalityCalm       PersonalityPreference = "calm"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// TimePreference is a day-part tag a client can ask for.
type TimePreference string

const (
	TimeEarlyMorning TimePreference = "early_morning"
	TimeMorning      TimePreference = "morning"
	TimeAfternoon    TimePreference = "afternoon"
	TimeEvening      TimePreference = "evening"
	TimeNight        TimePreference = "night"
	TimeWeekends     TimePreference = "weekends"
)

// ClientPreferences is what a client submits to the matcher. Treat it as
// read-only once handed over.
type ClientPreferences struct {
	Mood                  int                   `json:"mood"`
	Topics                []string              `json:"topics"`
	CommunicationStyle    CommunicationStyle    `json:"communication_style,omitempty"`
	PreferredSessionTypes []SessionType         `json:"preferred_session_types"`
	PreferredTimes        []TimePreference      `json:"preferred_times"`
	PersonalityPreference PersonalityPreference `json:"personality_preference,omitempty"`
	Urgency               Urgency               `json:"urgency,omitempty"`
	Timezone              string                `json:"timezone"`
}
