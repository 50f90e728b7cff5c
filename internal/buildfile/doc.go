// Package buildfile parses both of Cubo's build-file surface syntaxes —
// a line-based text grammar and a structured TOML table grammar — into a
// single normalized [Plan]. The builder package is the only consumer
// of Plan; it does not know which syntax produced it.
package buildfile
