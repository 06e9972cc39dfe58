// Package configs provides the embedded configuration template for
// filesweep. The template is embedded at build time so 'filesweep config
// init' works in every distribution, source builds included.
package configs

import _ "embed"

// ConfigTemplate is the commented starter configuration written by
// 'filesweep config init'.
//
//go:embed filesweep.example.yaml
var ConfigTemplate string
