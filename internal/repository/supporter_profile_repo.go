package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/PeerSupportBack/internal/models"
)

type SupporterListFilter struct {
	// SessionTypes narrows the listing to supporters offering at least one
	// of the given types. Empty means no narrowing.
	SessionTypes []models.SessionType
}

type SupporterProfileRepository struct {
	db DBTX
}

func NewSupporterProfileRepository(db DBTX) *SupporterProfileRepository {
	return &SupporterProfileRepository{db: db}
}

const supporterColumns = `id, full_name, specialties, session_types, availability, approach,
	is_available, accepting_clients, is_verified, onboarding_complete, created_at, updated_at`

func scanSupporter(row pgx.Row) (*models.SupporterProfile, error) {
	var (
		profile      models.SupporterProfile
		availability []byte
		approach     *string
	)
	err := row.Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Specialties,
		&profile.SessionTypes,
		&availability,
		&approach,
		&profile.IsAvailable,
		&profile.AcceptingClients,
		&profile.IsVerified,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if approach != nil {
		profile.Approach = *approach
	}
	if profile.Availability, err = ParseAvailability(availability); err != nil {
		return nil, fmt.Errorf("supporter %s availability: %w", profile.ID, err)
	}
	return &profile, nil
}

func (r *SupporterProfileRepository) GetByID(ctx context.Context, supporterID string) (*models.SupporterProfile, error) {
	query := `SELECT ` + supporterColumns + ` FROM supporter_profiles WHERE id = $1`
	return scanSupporter(r.db.QueryRow(ctx, query, supporterID))
}

// ListEligible returns verified, onboarded supporters that accept new
// clients, in a stable order.
func (r *SupporterProfileRepository) ListEligible(
	ctx context.Context,
	filter SupporterListFilter,
) ([]models.SupporterProfile, error) {
	args := []any{}
	whereParts := []string{
		"accepting_clients = TRUE",
		"is_verified = TRUE",
		"onboarding_complete = TRUE",
	}
	if len(filter.SessionTypes) > 0 {
		types := make([]string, 0, len(filter.SessionTypes))
		for _, sessionType := range filter.SessionTypes {
			types = append(types, string(sessionType))
		}
		args = append(args, types)
		whereParts = append(whereParts, fmt.Sprintf("session_types && $%d::text[]", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM supporter_profiles
		WHERE %s
		ORDER BY created_at ASC, id ASC
	`, supporterColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.SupporterProfile, 0)
	for rows.Next() {
		profile, err := scanSupporter(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

type storedSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

// ParseAvailability decodes the stored weekday -> slots document. Weekday
// keys are matched case-insensitively; slot times are "HH:MM".
func ParseAvailability(raw []byte) (models.WeeklyAvailability, error) {
	var availability models.WeeklyAvailability
	if len(raw) == 0 || string(raw) == "null" {
		return availability, nil
	}

	var stored map[string][]storedSlot
	if err := json.Unmarshal(raw, &stored); err != nil {
		return availability, err
	}

	for key, slots := range stored {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			return availability, fmt.Errorf("unknown weekday %q", key)
		}
		for _, slot := range slots {
			start, err := parseClock(slot.Start)
			if err != nil {
				return availability, err
			}
			end, err := parseClock(slot.End)
			if err != nil {
				return availability, err
			}
			availability[day] = append(availability[day], models.TimeRange{StartMinute: start, EndMinute: end})
		}
	}

	// Aliased keys ("Mon", "monday") merge into one day in map order.
	for _, slots := range availability {
		sort.Slice(slots, func(i, j int) bool {
			if slots[i].StartMinute != slots[j].StartMinute {
				return slots[i].StartMinute < slots[j].StartMinute
			}
			return slots[i].EndMinute < slots[j].EndMinute
		})
	}
	return availability, nil
}

func parseClock(value string) (int, error) {
	hours, minutes, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	return h*60 + m, nil
}
