package model

// Topic is a push-notification channel inside a bundle.
type Topic struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	FCMTopicName string          `json:"fcm_topic_name,omitempty"`
	Subscribers  map[string]bool `json:"subscribers,omitempty"`
}

// Bundle groups topics that clients subscribe to for notifications.
type Bundle struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Topics map[string]Topic `json:"topics,omitempty"`
}
