package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/saeid-a/PeerSupportBack/internal/models"
	"github.com/saeid-a/PeerSupportBack/internal/repository"
)

const (
	specialtyWeight       = 40.0
	sessionTypeWeight     = 20.0
	availabilityWeight    = 20.0
	flexibleScheduleScore = 10.0
	approachKeywordScore  = 5
	approachLengthScore   = 5
	approachNeutralScore  = 5
	approachLengthFloor   = 50
	liveAvailabilityBonus = 5
	minimumUsefulScore    = 15
	maxMatchReasons       = 3
)

type SupporterDirectory interface {
	ListEligible(ctx context.Context, filter repository.SupporterListFilter) ([]models.SupporterProfile, error)
}

type MatchmakingService struct {
	supporters SupporterDirectory
	rt         Runtime
}

func NewMatchmakingService(supporters SupporterDirectory, rt Runtime) *MatchmakingService {
	return &MatchmakingService{supporters: supporters, rt: rt.withDefaults()}
}

// Match ranks every listable supporter for prefs. An empty result means no
// eligible supporter exists; it is not an error.
func (s *MatchmakingService) Match(
	ctx context.Context,
	prefs models.ClientPreferences,
	limit int,
) ([]models.MatchResult, error) {
	if err := ValidatePreferences(prefs); err != nil {
		return nil, err
	}

	started := time.Now()
	// Every eligible supporter is scored; a supporter without a shared
	// session type still competes on the other components.
	profiles, err := s.supporters.ListEligible(ctx, repository.SupporterListFilter{})
	if err != nil {
		return nil, storeFailure("list eligible supporters", err)
	}

	candidates := make([]models.SupporterCandidate, 0, len(profiles))
	for _, profile := range profiles {
		if !profile.OnboardingComplete {
			continue
		}
		if candidate, ok := profile.Candidate(); ok {
			candidates = append(candidates, candidate)
		}
	}

	results := RankCandidates(prefs, candidates)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	s.rt.Metrics.ObserveMatch(time.Since(started), len(results))
	return results, nil
}

// RankCandidates scores candidates and orders them best first. Weak matches
// are dropped unless nothing else is left.
func RankCandidates(prefs models.ClientPreferences, candidates []models.SupporterCandidate) []models.MatchResult {
	scored := make([]models.MatchResult, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, scoreCandidate(prefs, candidate))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CompatibilityScore > scored[j].CompatibilityScore
	})

	useful := make([]models.MatchResult, 0, len(scored))
	for _, result := range scored {
		if result.CompatibilityScore >= minimumUsefulScore {
			useful = append(useful, result)
		}
	}
	if len(useful) == 0 {
		return scored
	}
	return useful
}

func scoreCandidate(prefs models.ClientPreferences, candidate models.SupporterCandidate) models.MatchResult {
	reasons := make([]string, 0, maxMatchReasons)

	specialty, matchedTopic := specialtyScore(prefs.Topics, normalizeValues(candidate.Specialties))
	if matchedTopic != "" {
		reasons = append(reasons, "Specializes in "+matchedTopic)
	}

	sessionType, sharedType := sessionTypeScore(prefs.PreferredSessionTypes, candidate.SessionTypes)
	if sharedType != "" {
		reasons = append(reasons, fmt.Sprintf("Offers %s sessions", sharedType))
	}

	availability, availabilityReason := availabilityScore(prefs.PreferredTimes, candidate.Availability)
	if availabilityReason != "" {
		reasons = append(reasons, availabilityReason)
	}

	approach, approachMatched := approachScore(prefs, candidate.Approach)
	if approachMatched {
		reasons = append(reasons, "Approach fits your communication preferences")
	}

	total := specialty + sessionType + availability + float64(approach)
	if candidate.IsAvailable {
		total += liveAvailabilityBonus
		reasons = append(reasons, "Available now")
	}

	if len(reasons) > maxMatchReasons {
		reasons = reasons[:maxMatchReasons]
	}

	return models.MatchResult{
		SupporterID:        candidate.ID,
		CompatibilityScore: int(math.Round(total)),
		MatchReasons:       reasons,
	}
}

func specialtyScore(topics []string, specialties map[string]struct{}) (float64, string) {
	keys, labels := uniqueNormalized(topics)
	if len(keys) == 0 {
		return 0, ""
	}

	matched := 0
	firstMatch := ""
	for i, key := range keys {
		for _, alias := range topicAliases(key) {
			if _, ok := specialties[alias]; ok {
				matched++
				if firstMatch == "" {
					firstMatch = labels[i]
				}
				break
			}
		}
	}

	return float64(matched) / float64(len(keys)) * specialtyWeight, firstMatch
}

func sessionTypeScore(preferred []models.SessionType, offered []models.SessionType) (float64, models.SessionType) {
	wanted := make([]models.SessionType, 0, len(preferred))
	seen := make(map[models.SessionType]struct{}, len(preferred))
	for _, sessionType := range preferred {
		if _, dup := seen[sessionType]; dup {
			continue
		}
		seen[sessionType] = struct{}{}
		wanted = append(wanted, sessionType)
	}
	if len(wanted) == 0 {
		return 0, ""
	}

	available := make(map[models.SessionType]struct{}, len(offered))
	for _, sessionType := range offered {
		available[sessionType] = struct{}{}
	}

	overlap := 0
	var first models.SessionType
	for _, sessionType := range wanted {
		if _, ok := available[sessionType]; ok {
			overlap++
			if first == "" {
				first = sessionType
			}
		}
	}

	return float64(overlap) / float64(len(wanted)) * sessionTypeWeight, first
}

func availabilityScore(preferred []models.TimePreference, availability models.WeeklyAvailability) (float64, string) {
	tags := make([]models.TimePreference, 0, len(preferred))
	seen := make(map[models.TimePreference]struct{}, len(preferred))
	for _, tag := range preferred {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return flexibleScheduleScore, "Flexible schedule"
	}

	matched := 0
	for _, tag := range tags {
		if matchesTimePreference(tag, availability) {
			matched++
		}
	}
	if matched == 0 {
		return 0, ""
	}

	score := math.Min(availabilityWeight, float64(matched)/float64(len(tags))*availabilityWeight)
	return score, "Available during your preferred times"
}

func matchesTimePreference(tag models.TimePreference, availability models.WeeklyAvailability) bool {
	if tag == models.TimeWeekends {
		return len(availability.On(time.Saturday)) > 0 || len(availability.On(time.Sunday)) > 0
	}

	window, ok := dayParts[tag]
	if !ok {
		return false
	}
	for _, slots := range availability {
		for _, slot := range slots {
			if hour := slot.StartHour(); hour >= window.from && hour < window.to {
				return true
			}
		}
	}
	return false
}

func approachScore(prefs models.ClientPreferences, approach string) (int, bool) {
	approach = strings.TrimSpace(approach)
	if approach == "" {
		return approachNeutralScore, false
	}

	text := strings.ToLower(approach)
	score := 0
	if containsAny(text, styleKeywords[prefs.CommunicationStyle]) {
		score += approachKeywordScore
	}
	if containsAny(text, personalityKeywords[prefs.PersonalityPreference]) {
		score += approachKeywordScore
	}
	matched := score > 0
	if utf8.RuneCountInString(approach) > approachLengthFloor {
		score += approachLengthScore
	}
	return score, matched
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func uniqueNormalized(values []string) ([]string, []string) {
	keys := make([]string, 0, len(values))
	labels := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		key := normalize(value)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
		labels = append(labels, strings.TrimSpace(value))
	}
	return keys, labels
}

func normalizeValues(values []string) map[string]struct{} {
	normalized := make(map[string]struct{}, len(values))
	for _, value := range values {
		if key := normalize(value); key != "" {
			normalized[key] = struct{}{}
		}
	}
	return normalized
}

func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	value = strings.ReplaceAll(value, " ", "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}

// ValidatePreferences rejects preferences the matcher cannot score.
func ValidatePreferences(prefs models.ClientPreferences) error {
	if prefs.Mood < 1 || prefs.Mood > 10 {
		return fmt.Errorf("%w: mood must be between 1 and 10", ErrInvalidPreferences)
	}
	if len(prefs.PreferredSessionTypes) == 0 {
		return fmt.Errorf("%w: preferred_session_types must contain at least one item", ErrInvalidPreferences)
	}
	for _, sessionType := range prefs.PreferredSessionTypes {
		if !sessionType.Valid() {
			return fmt.Errorf("%w: unknown session type %q", ErrInvalidPreferences, sessionType)
		}
	}
	for _, tag := range prefs.PreferredTimes {
		if _, ok := dayParts[tag]; !ok && tag != models.TimeWeekends {
			return fmt.Errorf("%w: unknown preferred time %q", ErrInvalidPreferences, tag)
		}
	}
	for _, topic := range prefs.Topics {
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("%w: topics must not contain empty values", ErrInvalidPreferences)
		}
	}
	if _, ok := styleKeywords[prefs.CommunicationStyle]; !ok && prefs.CommunicationStyle != "" {
		return fmt.Errorf("%w: unknown communication style %q", ErrInvalidPreferences, prefs.CommunicationStyle)
	}
	if _, ok := personalityKeywords[prefs.PersonalityPreference]; !ok && prefs.PersonalityPreference != "" {
		return fmt.Errorf("%w: unknown personality preference %q", ErrInvalidPreferences, prefs.PersonalityPreference)
	}
	switch prefs.Urgency {
	case "", models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
	default:
		return fmt.Errorf("%w: unknown urgency %q", ErrInvalidPreferences, prefs.Urgency)
	}
	return nil
}
