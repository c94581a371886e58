// Package config loads FrameBridge settings.
//
// Settings are layered: built-in defaults, an optional YAML file, then
// environment variables with the FRAMEBRIDGE_ prefix (highest priority).
//
//	FRAMEBRIDGE_LOG_LEVEL=debug
//	FRAMEBRIDGE_WORKERS=4
//	FRAMEBRIDGE_CHUNK_SIZE=8192
//	FRAMEBRIDGE_S3__REGION=eu-west-1
//	FRAMEBRIDGE_S3__ENDPOINT=http://localhost:9000
//
// The YAML file uses the same keys:
//
//	log_level: debug
//	workers: 4
//	s3:
//	  region: eu-west-1
//	http:
//	  timeout: 30s
package config
