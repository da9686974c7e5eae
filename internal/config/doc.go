// Package config provides configuration parsing for the lazydefine CLI.
//
// The configuration lives in lazydefine.yaml (or .yml, .json, .toml) and
// every key can be overridden from the environment with the LAZYDEFINE_
// prefix, dots replaced by underscores.
//
// # Configuration File Structure
//
//	base_url: https://cdn.example.com/elements/
//	role_attribute: role
//	filter: [x-card, x-menu]
//	urls:
//	  x-menu: menus/main.json
//	url_pattern: "{name}.json"
//	loader:
//	  kind: http          # import, http, fs or s3
//	  timeout: 30s
//	  cache_ttl: 10m
//	  s3:
//	    bucket: elements
//	    region: us-east-1
//	inspect:
//	  addr: localhost:7070
//	watch:
//	  debounce: 100ms
//	log_level: info
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
