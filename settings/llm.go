package settings

// 配置键。历史记录两个键由 history 包读写。
const (
	KeyOpenAIAPIKey   = "openai_api_key"
	KeyClaudeAPIKey   = "claude_api_key"
	KeyGrokAPIKey     = "grok_api_key"
	KeyMeshyAPIKey    = "meshy_api_key"
	KeyActiveProvider = "active_provider"
	KeyTemperature    = "temperature"
	KeyMaxTokens      = "max_tokens"
	KeySystemPrompt   = "system_prompt"
	KeyPolycount      = "target_polycount"
	KeyCodeHistory    = "geomflow_code_history"
	KeyMeshHistory    = "geomflow_mesh_history"
)

// LLMSettings 汇集文本生成相关的用户配置。
type LLMSettings struct {
	OpenAIAPIKey   string
	ClaudeAPIKey   string
	GrokAPIKey     string
	MeshyAPIKey    string
	ActiveProvider string
	Temperature    float64
	MaxTokens      int
	SystemPrompt   string
	Polycount      int
}

// LoadLLM 从存储读出生成配置，缺失项取默认值。
func (s *Store) LoadLLM() LLMSettings {
	return LLMSettings{
		OpenAIAPIKey:   s.GetString(KeyOpenAIAPIKey, ""),
		ClaudeAPIKey:   s.GetString(KeyClaudeAPIKey, ""),
		GrokAPIKey:     s.GetString(KeyGrokAPIKey, ""),
		MeshyAPIKey:    s.GetString(KeyMeshyAPIKey, ""),
		ActiveProvider: s.GetString(KeyActiveProvider, "claude"),
		Temperature:    s.GetFloat(KeyTemperature, 0.1),
		MaxTokens:      s.GetInt(KeyMaxTokens, 2000),
		SystemPrompt:   s.GetString(KeySystemPrompt, ""),
		Polycount:      s.GetInt(KeyPolycount, 30000),
	}
}
