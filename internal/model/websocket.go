package model

// WebSocket message types
const (
	WSMessageTypeTranslation = "translation"
	WSMessageTypeComplete    = "complete"
	WSMessageTypePing        = "ping"
	WSMessageTypePong        = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSTranslationMessage reports a persisted transition of one target language
type WSTranslationMessage struct {
	Type      string           `json:"type"`
	ProfileID string           `json:"profileId"`
	Target    string           `json:"target"`
	Entry     TranslationEntry `json:"entry"`
}

// WSCompleteMessage reports that every target of a profile is done
type WSCompleteMessage struct {
	Type      string `json:"type"`
	ProfileID string `json:"profileId"`
}
