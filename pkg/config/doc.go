// Package config provides application configuration management from
// environment variables, optionally overlaid on a YAML file.
//
// # Configuration Structure
//
// Server settings:
//
//	CAREGATE_HOST="0.0.0.0"
//	CAREGATE_PORT="8080"
//	CAREGATE_METRICS_PORT="9090"
//	CAREGATE_READ_TIMEOUT="15s"
//	CAREGATE_WRITE_TIMEOUT="15s"
//
// Identity provider settings:
//
//	CAREGATE_PROVIDER_URL="https://auth.example.com"
//	CAREGATE_PROVIDER_API_KEY="..."
//	CAREGATE_PROVIDER_TIMEOUT="10s"
//
// Profile directory settings:
//
//	CAREGATE_POSTGRES_URL="postgres://localhost/caregate"
//	CAREGATE_POSTGRES_MAX_CONNS="10"
//
// Session settings:
//
//	CAREGATE_REDIS_ADDR="localhost:6379"
//	CAREGATE_SESSION_PREFIX="caregate"
//	CAREGATE_SESSION_IDLE_TIMEOUT="15m"
//	CAREGATE_SESSION_SWEEP_INTERVAL="1m"
//
// Geography settings:
//
//	CAREGATE_GEOGRAPHY_URL="https://geo.example.com"
//	CAREGATE_GEOGRAPHY_WARMUP="@every 6h"
//
// Logging settings:
//
//	CAREGATE_LOG_LEVEL="info"  # debug, info, warn, error
//	CAREGATE_LOG_FORMAT="json" # json, text
//
// A YAML file named by CAREGATE_CONFIG_FILE is read first when set;
// environment variables override its values.
package config
