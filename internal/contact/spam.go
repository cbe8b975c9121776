package contact

import "strings"

// SpamDetector flags messages containing known scam/phishing vocabulary.
// Flagged messages are still stored; the admin list can filter them out.
type SpamDetector struct {
	spamWords []string
}

func NewSpamDetector() *SpamDetector {
	return &SpamDetector{
		spamWords: []string{
			"bitcoin", "btc", "crypto", "wallet", "investment", "profit",
			"earn money", "make money", "get rich", "quick money",
			"free money", "lottery", "prize", "winner", "claim",
			"account suspended", "security alert", "bank transfer",
			"western union", "inheritance", "nigerian prince",
			"credit card", "ssn", "social security",
		},
	}
}

func (sd *SpamDetector) IsSpam(message string) bool {
	messageLower := strings.ToLower(message)
	for _, word := range sd.spamWords {
		if strings.Contains(messageLower, word) {
			return true
		}
	}
	return false
}
