package bootstrap

import "github.com/kbukum/profilewizard/config"

// Config is satisfied by any application config that embeds
// config.ServiceConfig and adds its own ApplyDefaults and Validate.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
