// Package config resolves runtime settings for the Flowise MCP server.
//
// Settings come from three layers, later layers winning:
//
//  1. built-in defaults (http://localhost:3000, 60s timeout, 3 attempts)
//  2. an optional YAML or JSON file, named by the --config flag or
//     $FLOWISE_MCP_CONFIG
//  3. FLOWISE_* environment variables
//
// A config file uses the same keys as the environment, in snake_case:
//
//	base_url: https://flowise.internal:3000
//	api_key: sk-...
//	timeout: 30s        # or a number of seconds
//	retry_attempts: 5
//	log_level: debug
//	log_format: json
//	telemetry: true
//
// Config itself is a small typed accessor over map[string]any that returns
// defaults for missing or mistyped values instead of failing:
//
//	cfg, err := config.FromFile("flowise.yaml")
//	timeout := cfg.Duration("timeout", 60*time.Second)
package config
