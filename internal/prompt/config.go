package prompt

// Config holds request settings for the interview prompts.
type Config struct {
	// MaxTokens is the reply budget while interviewing.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`

	// DiagnosisMaxTokens is the reply budget for the final diagnosis,
	// which carries recommendations and needs more room.
	DiagnosisMaxTokens int `mapstructure:"diagnosis_max_tokens" yaml:"diagnosis_max_tokens"`

	// BatchMaxTokens is the reply budget for a fixed questionnaire.
	BatchMaxTokens int `mapstructure:"batch_max_tokens" yaml:"batch_max_tokens"`

	// Temperature controls output randomness (0.0-1.0).
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// ContextQuestions caps how many taxonomy screening questions are
	// suggested in the interviewing instruction.
	ContextQuestions int `mapstructure:"context_questions" yaml:"context_questions"`
}

// DefaultConfig returns the settings the interview was tuned with.
func DefaultConfig() Config {
	return Config{
		MaxTokens:          150,
		DiagnosisMaxTokens: 400,
		BatchMaxTokens:     600,
		Temperature:        0.1,
		ContextQuestions:   3,
	}
}
