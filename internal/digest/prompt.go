package digest

import "github.com/tejusbharadwaj/meterlens/internal/models"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMaxHistory is how many prior messages are replayed when the caller
// does not choose a limit.
const DefaultMaxHistory = 10

// SystemPrompt opens every conversation.
const SystemPrompt = "You are a helpful energy data analyst. Keep responses short and conversational."

const dataContextPrefix = "You also have access to this energy data: "

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Messages assembles the prompt for one question: the system prompt, the most
// recent maxHistory history entries, the data digest when samples exist, and
// finally the question itself. A maxHistory of zero or less selects
// DefaultMaxHistory.
func Messages(history []Message, question string, samples []models.Sample, maxHistory int) []Message {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	out := make([]Message, 0, len(history)+3)
	out = append(out, Message{Role: RoleSystem, Content: SystemPrompt})
	out = append(out, history...)
	if len(samples) > 0 {
		out = append(out, Message{Role: RoleSystem, Content: dataContextPrefix + Build(samples)})
	}
	return append(out, Message{Role: RoleUser, Content: question})
}

// Record appends a completed exchange to history.
func Record(history []Message, question, answer string) []Message {
	return append(history,
		Message{Role: RoleUser, Content: question},
		Message{Role: RoleAssistant, Content: answer},
	)
}
