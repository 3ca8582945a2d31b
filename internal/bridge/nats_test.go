package bridge

import (
	"strings"
	"testing"
)

func TestSubjects(t *testing.T) {
	if got := SnapshotSubject("home.router"); got != "home.router.snapshot" {
		t.Errorf("SnapshotSubject = %q", got)
	}
	if got := SetSubject("home.router"); got != "home.router.set" {
		t.Errorf("SetSubject = %q", got)
	}
}

func TestClientName(t *testing.T) {
	a := ClientName("wrtsync")
	b := ClientName("wrtsync")

	if !strings.HasPrefix(a, "wrtsync_") {
		t.Errorf("ClientName = %q, want wrtsync_ prefix", a)
	}
	if len(a) != len("wrtsync_")+36 {
		t.Errorf("ClientName = %q, want a uuid suffix", a)
	}
	if a == b {
		t.Error("ClientName should differ between instances")
	}
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		data    string
		want    IntentRequest
		wantErr bool
	}{
		{`{"key":"WiFiReload","value":true}`, IntentRequest{Key: "WiFiReload", Value: true}, false},
		{`{"key":"SystemReboot"}`, IntentRequest{Key: "SystemReboot"}, false},
		{`{"value":true}`, IntentRequest{}, true},
		{`garbage`, IntentRequest{}, true},
	}

	for _, tt := range tests {
		got, err := parseIntent([]byte(tt.data))
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIntent(%s) error = %v, wantErr %v", tt.data, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseIntent(%s) = %+v, want %+v", tt.data, got, tt.want)
		}
	}
}
