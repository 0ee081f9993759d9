// Package config defines the format-agnostic model of the snapshot
// configuration and the interfaces the loading layer implements. The HCL
// specifics live in the schema and hcl packages.
package config
