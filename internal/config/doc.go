// Package config loads the configuration of the composables CLI and hub.
//
// The configuration lives in composables.yaml (or composables.yml or
// composables.json) at the project root. Missing fields take defaults; the
// result is validated before it is returned.
//
// # Configuration File Structure
//
//	storage:
//	  backend: bolt          # memory, bolt or s3
//	  path: data/storage.db  # bolt only, relative to the config file
//	  quota: 5242880         # memory only; -1 is unlimited
//	  bucket: my-bucket      # s3 only
//	  prefix: windows/main/
//	  region: eu-west-1
//	  endpoint: http://localhost:9000
//	hub:
//	  addr: localhost:7300
//	  url: ws://localhost:7300/ws
//	  shutdownTimeout: 5s
//	  allowedOrigins: [https://app.example.com]
//	log:
//	  level: info            # debug, info, warn or error
//	  format: text           # text or json
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := cfg.Log.Logger(os.Stderr)
package config
