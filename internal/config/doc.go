// Package config provides configuration types and loading for the
// gateway.
//
// Configuration is read from a single YAML file. Values may reference
// environment variables:
//
//	rateLimitStore:
//	  type: redis
//	  redis:
//	    url: ${REDIS_URL}
//	    prefix: ${REDIS_PREFIX:-avagate:}
//
// Use $$ to write a literal dollar sign.
//
// Loading:
//
//	cfg, err := config.LoadConfig("configs/gateway.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    return err
//	}
//
// LoadConfig fills every omitted field from DefaultConfig, so a file
// with only routes is a complete configuration.
package config
