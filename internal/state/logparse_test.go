package state

import "testing"

func TestInferLevel(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"json level", `{"level":"error","msg":"boom"}`, "ERR"},
		{"json lvl", `{"lvl":"warning","msg":"hmm"}`, "WARN"},
		{"json without level", `{"msg":"hi"}`, ""},
		{"logfmt", `ts=1 level=info msg=started`, "INFO"},
		{"logfmt quoted", `lvl="debug" msg=x`, "DBUG"},
		{"bare word", "ERROR something broke", "ERR"},
		{"bracketed", "[WARN] low disk", "WARN"},
		{"colon", "info: listening", "INFO"},
		{"fatal", "FATAL cannot start", "ERR"},
		{"none", "just a message", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferLevel(tt.msg); got != tt.want {
				t.Errorf("InferLevel(%q) = %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}
