package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

func TestSetupLevelAndFormat(t *testing.T) {
	tests := []struct {
		level, format string
		wantLevel     logrus.Level
		wantJSON      bool
	}{
		{"debug", "json", logrus.DebugLevel, true},
		{"WARN", "text", logrus.WarnLevel, false},
		{"error", "", logrus.ErrorLevel, false},
		{"verbose", "JSON", logrus.InfoLevel, true},
		{"", "", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			SetupWithOutput(tt.level, tt.format, &buf)

			if got := logrus.GetLevel(); got != tt.wantLevel {
				t.Errorf("level = %v, want %v", got, tt.wantLevel)
			}
			_, isJSON := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
			if isJSON != tt.wantJSON {
				t.Errorf("json formatter = %v, want %v", isJSON, tt.wantJSON)
			}
		})
	}
}

func TestFromContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	SetupWithOutput("info", "json", &buf)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	FromContext(ctx).Info("handled")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["request_id"] != "req-42" {
		t.Errorf("request_id = %v", line["request_id"])
	}
	if line["msg"] != "handled" {
		t.Errorf("msg = %v", line["msg"])
	}
}

func TestFromContextWithoutRequestID(t *testing.T) {
	entry := FromContext(context.Background())
	if _, ok := entry.Data["request_id"]; ok {
		t.Error("unexpected request_id field")
	}
}
