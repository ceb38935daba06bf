package model

import "time"

// PollOption is one votable choice within a poll.
type PollOption struct {
	ID    int    `json:"id"`
	Text  string `json:"text"`
	Votes int64  `json:"votes"`
}

// Poll is a community vote. Vote counters are mutated only through the
// store's atomic increment primitive, never read-modify-write.
type Poll struct {
	ID             string         `json:"id"`
	Question       string         `json:"question"`
	Options        []PollOption   `json:"options"`
	Voters         map[string]int `json:"voters"` // voter key -> option id
	CreatedBy      string         `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at,omitempty"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	DurationType   string         `json:"duration_type,omitempty"`
	Status         string         `json:"status"`
	PublishResults bool           `json:"publish_results"`
	TotalVotes     int64          `json:"total_votes"`
}
