package domain

// Chat limits
const (
	MaxChatMessageLength = 200
	ChatRetention        = 50
	ChatReadLimit        = 30
)

// ChatMessage is a stored chat line
type ChatMessage struct {
	ID        string `json:"id"`
	PlayerID  string `json:"playerId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ChatLine is the read projection of a chat message
type ChatLine struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// TruncateMessage cuts a message to MaxChatMessageLength runes
func TruncateMessage(message string) string {
	runes := []rune(message)
	if len(runes) <= MaxChatMessageLength {
		return message
	}
	return string(runes[:MaxChatMessageLength])
}
