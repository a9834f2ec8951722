package services

import (
	"strings"

	"chatbot-insights-go/internal/models"
)

// Referral keywords scanned on AI messages: the bot handing the user off to
// the Servilínea human channel.
var referralKeywords = []string{
	"servilínea", "servilinea", "línea de atención", "linea de atencion",
}

// Advisor keywords scanned on human messages: the user asking for a person.
var advisorKeywords = []string{
	"asesor", "humano", "persona", "alguien", "contactar",
	"agente", "ejecutivo", "hablar con", "atención", "atencion",
}

// Failure keywords scanned on AI messages at query time.
var failureKeywords = []string{
	"no puedo", "no tengo información", "no estoy seguro",
	"te recomiendo comunicarte", "no me es posible", "fuera de mi alcance",
	"no cuento con", "lo siento, no", "no tengo acceso",
	"intenta más tarde", "error", "no disponible", "no entiendo",
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// applyEscalationFlags stamps referral and advisor-request flags in place.
// Records must be in ingest order so "first two human messages" resolves
// correctly. Per thread: the first AI message carrying a referral keyword is
// flagged as the referral, and the first human message carrying an advisor
// keyword is flagged as the request: immediate when it is among the thread's
// first two human messages, after_effort otherwise.
func applyEscalationFlags(records []models.Message) {
	type threadState struct {
		humanSeen       int
		referralFlagged bool
		advisorFlagged  bool
	}
	state := make(map[string]*threadState)

	for i := range records {
		m := &records[i]
		ts, ok := state[m.ThreadID]
		if !ok {
			ts = &threadState{}
			state[m.ThreadID] = ts
		}

		switch m.SenderType {
		case models.SenderAI:
			if !ts.referralFlagged && containsAny(m.Text, referralKeywords) {
				m.IsReferral = true
				ts.referralFlagged = true
			}
		case models.SenderHuman:
			if !ts.advisorFlagged && containsAny(m.Text, advisorKeywords) {
				m.IsAdvisorRequest = true
				requestType := models.RequestAfterEffort
				if ts.humanSeen < 2 {
					requestType = models.RequestImmediate
				}
				m.RequestType = &requestType
				ts.advisorFlagged = true
			}
			ts.humanSeen++
		}
	}
}
