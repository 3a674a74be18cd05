// Package config loads webstash settings with Viper.
//
// Settings come from, in increasing precedence: built-in defaults, a YAML
// file, a .env file in the working directory, and WEBSTASH_* environment
// variables. The file is searched as config.yaml in the current directory
// and then in $XDG_CONFIG_HOME/webstash unless an explicit path is given.
//
//	version: 1
//	backends: [localStorage, cookies, indexedDB]
//	compress: true
//	encrypt: false
//	retention: 10
//	host: localhost
//	browser:
//	  headless: true
//	  stealth: false
//
// Nested keys map to environment variables with underscores, so
// browser.remote_url is WEBSTASH_BROWSER_REMOTE_URL.
package config
