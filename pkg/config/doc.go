// Package config holds the environment configuration aggregate and the
// scenario file loader.
//
// A scenario file is YAML. It is validated against an embedded JSON schema
// before being decoded, so unknown keys and out-of-range values are reported
// as domain.ErrConfiguration rather than silently ignored.
package config
