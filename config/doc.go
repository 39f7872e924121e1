// Package config loads the configuration of the profilewizard binaries.
//
// Values come from config.yml, then from a .env file, then from the process
// environment, each layer overriding the previous one. Environment
// variables carry the WIZARD_ prefix and use underscores for nesting:
//
//	WIZARD_API_BASE_URL=https://api.example.com
//	WIZARD_AUTOSAVE_BACKEND=redis
//	WIZARD_REDIS_ADDR=localhost:6379
//
// # Usage
//
//	cfg, err := config.Load[config.AppConfig]("wizard-session")
//
// Every section has ApplyDefaults and Validate; Load calls both.
package config
