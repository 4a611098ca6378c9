package models

import "time"

// TimeRange is a slot within a day, in minutes since midnight.
type TimeRange struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

func (r TimeRange) StartHour() int {
	return r.StartMinute / 60
}

// WeeklyAvailability is indexed by time.Weekday.
type WeeklyAvailability [7][]TimeRange

func (a WeeklyAvailability) On(day time.Weekday) []TimeRange {
	return a[day]
}

// SupporterProfile is the stored supporter record. It may be incomplete;
// call Candidate to obtain something the matcher can score.
type SupporterProfile struct {
	ID                 string             `json:"id"`
	FullName           *string            `json:"full_name"`
	Specialties        []string           `json:"specialties"`
	SessionTypes       []SessionType      `json:"session_types"`
	Availability       WeeklyAvailability `json:"availability"`
	Approach           string             `json:"approach"`
	IsAvailable        bool               `json:"is_available"`
	AcceptingClients   bool               `json:"accepting_clients"`
	IsVerified         bool               `json:"is_verified"`
	OnboardingComplete bool               `json:"onboarding_complete"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// SupporterCandidate is a supporter that passed the eligibility gate.
type SupporterCandidate struct {
	ID           string
	Specialties  []string
	SessionTypes []SessionType
	Availability WeeklyAvailability
	Approach     string
	IsAvailable  bool
}

// Candidate returns the scoreable view of the profile. Profiles that are
// not verified or not accepting clients are never candidates.
func (p SupporterProfile) Candidate() (SupporterCandidate, bool) {
	if !p.AcceptingClients || !p.IsVerified {
		return SupporterCandidate{}, false
	}
	return SupporterCandidate{
		ID:           p.ID,
		Specialties:  p.Specialties,
		SessionTypes: p.SessionTypes,
		Availability: p.Availability,
		Approach:     p.Approach,
		IsAvailable:  p.IsAvailable,
	}, true
}

type MatchResult struct {
	SupporterID        string   `json:"supporter_id"`
	CompatibilityScore int      `json:"compatibility_score"`
	MatchReasons       []string `json:"match_reasons"`
}
