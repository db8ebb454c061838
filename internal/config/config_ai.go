package config

// Operation names used for per-operation AI configuration
const (
	OperationOptimize = "optimize"
	OperationAnalyze  = "analyze"
	OperationRephrase = "rephrase"
)

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		retries := c.AI.MaxRetries
		opCfg.MaxRetries = &retries
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.UseSystemPrompts == nil {
		useSystem := c.AI.UseSystemPrompts
		opCfg.UseSystemPrompts = &useSystem
	}
}

// GetOptimizeConfig returns the AI configuration for resume rewrites with fallback to global config
func (c *Config) GetOptimizeConfig() OperationAIConfig {
	config := c.AI.Optimize
	c.applyOperationDefaults(&config)
	return config
}

// GetAnalyzeConfig returns the AI configuration for gap analysis with fallback to global config
func (c *Config) GetAnalyzeConfig() OperationAIConfig {
	config := c.AI.Analyze
	c.applyOperationDefaults(&config)
	return config
}

// GetRephraseConfig returns the AI configuration for section rephrasing with fallback to global config
func (c *Config) GetRephraseConfig() OperationAIConfig {
	config := c.AI.Rephrase
	c.applyOperationDefaults(&config)
	return config
}

// GetOperationConfig resolves the configuration for a named operation.
// Unknown names get the global settings.
func (c *Config) GetOperationConfig(operation string) OperationAIConfig {
	switch operation {
	case OperationOptimize:
		return c.GetOptimizeConfig()
	case OperationAnalyze:
		return c.GetAnalyzeConfig()
	case OperationRephrase:
		return c.GetRephraseConfig()
	default:
		var config OperationAIConfig
		c.applyOperationDefaults(&config)
		return config
	}
}
