package tutor

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the dialogue.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelUnspecified  Level = ""
)

// ParseLevel matches exactly, anything else is LevelUnspecified.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return Level(s)
	}
	return LevelUnspecified
}
