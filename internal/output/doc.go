// Package output serializes command results as YAML or JSON.
//
// Formats are looked up by name in a [Registry]; [DefaultRegistry] carries
// the built-in yaml and json encoders.
package output
