// Package config provides configuration types and loaders for stubd.
//
// ServerConfiguration holds the server settings (bind address, timeouts,
// journal size, mapping globs, logging). It can be read from a JSON or YAML
// file with LoadFromFile and overridden from STUBD_* environment variables
// with ApplyEnv.
//
// Mapping files hold stub definitions in the same JSON shape the admin API
// accepts. A file may contain a single mapping, a list of mappings, or an
// object with a "mappings" list, in either JSON or YAML:
//
//	mappings:
//	  - request:
//	      method: GET
//	      urlPath: /api/message
//	    response:
//	      status: 200
//	      body: hello
//
// LoadMappings expands doublestar globs (including **) relative to a base
// directory and returns the stubs in a deterministic order.
package config
