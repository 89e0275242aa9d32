// Package config loads pqs.yml and resolves the parameters of one pqs
// invocation.
//
// # Configuration Precedence
//
// Each parameter is resolved from the following sources (highest to lowest priority):
//
//  1. Command line (--include=src,tests, --level=5, --details, ...)
//  2. Environment variables (PQS_INCLUDE, PQS_LEVEL, PQS_DETAILS, ...)
//  3. The parameters section of pqs.yml
//  4. Built-in defaults
//
// When a higher-priority source sets a value, lower-priority values for that
// key are ignored. Store.Trail reports the winning source for every key.
//
// # Configuration File
//
// The file is looked up as config/pqs.yml, then pqs.yml in the project
// directory, then $XDG_CONFIG_HOME/pqs/pqs.yml. When none exists the
// built-in pqs.yml.dist is used. PQS_CONFIG names a file explicitly; it
// must exist.
//
//	paths-included: { <key>: <path> }
//	paths-excluded: [ <glob>, ... ]
//	rules-included: { <key>: <rule-id> }
//	rules-excluded: [ "<rule-id>[:<constraint>]", ... ]
//	parameters:     { <parameter>: <value> }
//
// # Analyzer Arguments
//
// Recognized --key arguments are consumed; everything else, and everything
// after a literal "--", is forwarded to the analyzer unchanged. Unknown
// --key arguments are rejected before any analyzer runs.
//
// # Environment Variables
//
//   - PQS_CONFIG: path of the configuration file
//   - PQS_DEBUG: any non-empty value enables debug logging
//   - PQS_<KEY>: one per parameter, e.g. PQS_WITH_SYMFONY for --with-symfony
package config
