package main

import (
	"testing"

	"github.com/muurk/wrtsync/internal/config"
)

func TestParseOnOff(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"ON", true, false},
		{"enable", true, false},
		{"1", true, false},
		{"off", false, false},
		{"disabled", false, false},
		{"0", false, false},
		{"maybe", false, true},
	}

	for _, tt := range tests {
		got, err := parseOnOff(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseOnOff(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOnOff(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBridgeConfig(t *testing.T) {
	t.Cleanup(func() { listenHost, listenPort, natsURL = "", 0, "" })

	reg := config.NewRegistry()
	reg.Bridge = &config.Bridge{
		HTTP: &config.HTTPBridge{Host: "0.0.0.0", Port: 9000},
		NATS: &config.NATSBridge{URL: "nats://bus:4222", Name: "office", Prefix: "home"},
	}
	tgt := &target{name: "office", router: &config.Router{Host: "192.168.1.1"}, registry: reg}

	httpCfg, nc := bridgeConfig(tgt)
	if httpCfg.Host != "0.0.0.0" || httpCfg.Port != 9000 {
		t.Errorf("http = %+v, want config values", httpCfg)
	}
	if nc == nil || nc.Prefix != "home" {
		t.Errorf("nats = %+v, want config values", nc)
	}

	listenPort = 8181
	natsURL = "nats://127.0.0.1:4222"
	httpCfg, nc = bridgeConfig(tgt)
	if httpCfg.Port != 8181 {
		t.Errorf("Port = %d, want flag value 8181", httpCfg.Port)
	}
	if nc.URL != "nats://127.0.0.1:4222" || nc.Prefix != "wrtsync" {
		t.Errorf("nats = %+v, want flag URL with default prefix", nc)
	}
}

func TestBridgeConfig_AdHoc(t *testing.T) {
	httpCfg, nc := bridgeConfig(&target{name: "x", router: &config.Router{Host: "x"}})
	if httpCfg.Host != "127.0.0.1" || httpCfg.Port != 8080 {
		t.Errorf("http = %+v, want defaults", httpCfg)
	}
	if nc != nil {
		t.Errorf("nats = %+v, want nil", nc)
	}
}

func TestResolveTarget_Host(t *testing.T) {
	t.Cleanup(func() { routerHost, routerUser = "", "" })
	routerHost = "192.168.1.1"

	tgt, err := resolveTarget()
	if err != nil {
		t.Fatalf("resolveTarget() error = %v", err)
	}
	if tgt.registry != nil {
		t.Error("ad hoc target should not write the config file")
	}
	if tgt.router.Username != "root" || tgt.router.RefreshInterval == 0 {
		t.Errorf("router = %+v, want defaults applied", tgt.router)
	}
}
