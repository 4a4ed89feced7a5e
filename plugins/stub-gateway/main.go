// Command stub-gateway is a model gateway plugin that answers with canned
// schedules, notes and resources. Point provider.plugin_path at its binary to
// run studyplan without a model service.
package main

import (
	"github.com/felixgeelhaar/studyplan/internal/plugin"
	"github.com/felixgeelhaar/studyplan/internal/provider"
)

func main() {
	plugin.Serve(provider.NewStubProvider())
}
