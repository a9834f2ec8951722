package insight

import "chatbot-insights-go/internal/models"

func strp(s string) *string { return &s }

type msgSpec struct {
	thread    string
	sender    string
	text      string
	date      string
	hour      int
	category  string
	intent    string
	sentiment string
	product   string
	referral  bool
}

func mk(spec msgSpec) models.Message {
	m := models.Message{
		ThreadID:   spec.thread,
		SenderType: spec.sender,
		Text:       spec.text,
		Date:       spec.date,
		Hour:       spec.hour,
		IsReferral: spec.referral,
	}
	if spec.category != "" {
		m.Category = strp(spec.category)
	}
	if spec.intent != "" {
		m.Intent = strp(spec.intent)
	}
	if spec.sentiment != "" {
		m.Sentiment = strp(spec.sentiment)
	}
	if spec.product != "" {
		m.Product = strp(spec.product)
	}
	return m
}
