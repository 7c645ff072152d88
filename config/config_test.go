package config

import (
	"testing"

	"go.viam.com/test"

	"github.com/sauk2/rmf-ros2/logging"
)

const sampleConfig = `{
	"fleet_name": "fleet1",
	"nav_graph_file": "graph.json",
	"enable_responsive_wait": true,
	"finishing_request": "charge"
}`

func TestParseConfig(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig), logging.NewTestLogger())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.FleetName, test.ShouldEqual, "fleet1")
	test.That(t, cfg.NavGraphFile, test.ShouldEqual, "graph.json")
	test.That(t, cfg.EnableResponsiveWait, test.ShouldBeTrue)
	test.That(t, cfg.FinishingRequest, test.ShouldEqual, FinishingCharge)
}

func TestParseConfigMissingFleetName(t *testing.T) {
	_, err := Parse([]byte(`{"nav_graph_file": "g.json"}`), logging.NewTestLogger())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "fleet_name")
}

func TestParseConfigMissingNavGraphFile(t *testing.T) {
	_, err := Parse([]byte(`{"fleet_name": "fleet1"}`), logging.NewTestLogger())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "nav_graph_file")
}

func TestParseConfigUnknownFinishingRequestFallsBack(t *testing.T) {
	cfg, err := Parse([]byte(`{"fleet_name":"f","nav_graph_file":"g.json","finishing_request":"bogus"}`), logging.NewTestLogger())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.FinishingRequest, test.ShouldEqual, FinishingNothing)
}

func TestParseConfigMissingBothReportsBoth(t *testing.T) {
	_, err := Parse([]byte(`{}`), logging.NewTestLogger())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "fleet_name")
	test.That(t, err.Error(), test.ShouldContainSubstring, "nav_graph_file")
}

func TestLoadDotEnvMissingFileIsNotError(t *testing.T) {
	err := LoadDotEnv("/nonexistent/path/.env")
	test.That(t, err, test.ShouldBeNil)
}
