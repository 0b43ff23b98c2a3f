package util

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	defer Logger.SetLevel(logrus.InfoLevel)

	if err := SetLogLevel("debug"); err != nil {
		t.Fatalf("SetLogLevel(debug) failed: %v", err)
	}
	if Logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", Logger.GetLevel())
	}

	if err := SetLogLevel("nonsense"); err == nil {
		t.Error("SetLogLevel should reject an invalid level")
	}
}

func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stderr)

	WithVlan(5).Info("found l3 interface for vlan")
	if !strings.Contains(buf.String(), "vlan=5") {
		t.Errorf("log output missing vlan field: %s", buf.String())
	}

	buf.Reset()
	WithStage("egress-objects").Info("deleting unclaimed egress object")
	if !strings.Contains(buf.String(), "stage=egress-objects") {
		t.Errorf("log output missing stage field: %s", buf.String())
	}
}
