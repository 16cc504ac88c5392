// Package config loads gravity.json and applies environment overrides.
//
// Values are resolved in three layers: built-in defaults, the JSON file,
// then GRAVITY_* environment variables. A .env file next to the config is
// loaded first and never overrides variables already set in the process.
//
//	{
//	  "manifest": "dist/server/manifest.json",
//	  "clientDir": "dist/client",
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 4321,
//	    "shutdownTimeout": "10s"
//	  },
//	  "log": {"level": "info", "format": "json"},
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "tracing": {"enabled": true, "exporter": "otlp", "endpoint": "http://localhost:4318"},
//	  "aws": {"region": "eu-west-1"}
//	}
//
// Every field has an environment variable named after its JSON path, e.g.
// GRAVITY_SERVER_PORT, GRAVITY_LOG_LEVEL or GRAVITY_AWS_REGION.
//
//	cfg, err := config.Resolve("gravity.json")
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
package config
