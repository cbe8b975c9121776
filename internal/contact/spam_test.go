package contact

import "testing"

func TestSpamDetector(t *testing.T) {
	sd := NewSpamDetector()

	spam := []string{
		"Invest in Bitcoin today",
		"You are the WINNER of our lottery",
		"claim your free money now",
		"Urgent: account suspended, verify your bank transfer",
	}
	for _, msg := range spam {
		t.Run(msg, func(t *testing.T) {
			if !sd.IsSpam(msg) {
				t.Fatalf("expected spam: %q", msg)
			}
		})
	}

	ham := []string{
		"Hello, I need 500 kraft pouches with a window",
		"Do you ship to Sousse?",
		"Can I get a sample of the spout pouch?",
		"",
	}
	for _, msg := range ham {
		t.Run("ham", func(t *testing.T) {
			if sd.IsSpam(msg) {
				t.Fatalf("expected not spam: %q", msg)
			}
		})
	}
}
