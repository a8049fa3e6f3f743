package models

import "encoding/json"

// HighScoreEvent is the payload pushed to a user's live channels when a
// submission crosses the high-score threshold.
type HighScoreEvent struct {
	DisplayName string `json:"user_name"`
	Score       int64  `json:"score"`
	Message     string `json:"notification"`
}

// pushMessage is the wire envelope streamed to clients.
type pushMessage struct {
	Message string         `json:"message"`
	Data    HighScoreEvent `json:"data"`
}

// Payload serializes the event into the wire envelope sent over a channel.
func (e HighScoreEvent) Payload() []byte {
	b, _ := json.Marshal(pushMessage{Message: "realtime-update", Data: e})
	return b
}
