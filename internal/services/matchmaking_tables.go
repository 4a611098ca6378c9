package services

import "github.com/saeid-a/PeerSupportBack/internal/models"

type hourWindow struct {
	from int
	to   int
}

var dayParts = map[models.TimePreference]hourWindow{
	models.TimeEarlyMorning: {from: 6, to: 9},
	models.TimeMorning:      {from: 9, to: 12},
	models.TimeAfternoon:    {from: 12, to: 17},
	models.TimeEvening:      {from: 17, to: 21},
	models.TimeNight:        {from: 21, to: 24},
}

// topicAliases lists the specialty labels that satisfy a normalized topic.
func topicAliases(topic string) []string {
	switch topic {
	case "anxiety":
		return []string{"anxiety", "stress", "panic", "worry"}
	case "depression":
		return []string{"depression", "low_mood", "sadness"}
	case "stress":
		return []string{"stress", "burnout", "anxiety"}
	case "relationships":
		return []string{"relationships", "family", "dating", "marriage"}
	case "grief":
		return []string{"grief", "loss", "bereavement"}
	case "self_esteem":
		return []string{"self_esteem", "confidence"}
	case "trauma":
		return []string{"trauma", "ptsd"}
	case "loneliness":
		return []string{"loneliness", "isolation", "social_connection"}
	case "work":
		return []string{"work", "career", "burnout"}
	case "sleep":
		return []string{"sleep", "insomnia"}
	default:
		return []string{topic}
	}
}

var styleKeywords = map[models.CommunicationStyle][]string{
	models.CommunicationDirect:     {"direct", "honest", "straightforward", "practical"},
	models.CommunicationGentle:     {"gentle", "compassion", "warm", "patient", "kind"},
	models.CommunicationStructured: {"structured", "goal", "plan", "cbt", "step"},
	models.CommunicationCasual:     {"casual", "friendly", "relaxed", "conversational"},
}

var personalityKeywords = map[models.PersonalityPreference][]string{
	models.PersonalityEmpathetic: {"empath", "listen", "understand", "support"},
	models.PersonalityMotivating: {"motivat", "encourag", "energ", "inspir"},
	models.PersonalityAnalytical: {"analy", "evidence", "insight", "reflect"},
	models.PersonalityCalm:       {"calm", "mindful", "grounded", "peace"},
}
