// Package cli implements the stubd command line.
//
// Commands:
//
//	stubd serve      start the stub server and block until interrupted
//	stubd validate   check mapping files without starting a server
//	stubd version    print version information
//
// Configuration is layered: defaults, then the --config file, then STUBD_*
// environment variables, then explicitly set flags.
package cli
