package inspectbridge

import "testing"

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr bool
		check   func(t *testing.T, msg Message)
	}{
		{
			name:  "method only",
			frame: `{"method":"getPlugins"}`,
			check: func(t *testing.T, msg Message) {
				if msg.Method != "getPlugins" {
					t.Errorf("Method = %q, want getPlugins", msg.Method)
				}
				if msg.ID != nil {
					t.Errorf("ID = %v, want nil", *msg.ID)
				}
				if msg.Params != nil {
					t.Errorf("Params = %v, want nil", msg.Params)
				}
			},
		},
		{
			name:  "full envelope",
			frame: `{"method":"execute","params":{"api":"p1","method":"getData"},"id":6}`,
			check: func(t *testing.T, msg Message) {
				if msg.ID == nil || *msg.ID != 6 {
					t.Fatalf("ID = %v, want 6", msg.ID)
				}
				if msg.Params["api"] != "p1" {
					t.Errorf("Params[api] = %v, want p1", msg.Params["api"])
				}
			},
		},
		{
			name:  "id zero is still present",
			frame: `{"method":"getPlugins","id":0}`,
			check: func(t *testing.T, msg Message) {
				if msg.ID == nil || *msg.ID != 0 {
					t.Errorf("ID = %v, want 0", msg.ID)
				}
			},
		},
		{
			name:    "not json",
			frame:   `{"method":`,
			wantErr: true,
		},
		{
			name:    "missing method",
			frame:   `{"params":{}}`,
			wantErr: true,
		},
		{
			name:    "non-string method",
			frame:   `{"method":42}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.frame))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, msg)
			}
		})
	}
}

func TestMessageFromPayload(t *testing.T) {
	// JSON-shaped decoders hand over float64 ids; others int or int64.
	for _, id := range []any{float64(5), int(5), int64(5)} {
		msg, err := MessageFromPayload(map[string]any{
			"method": "init",
			"params": map[string]any{"plugin": "p1"},
			"id":     id,
		})
		if err != nil {
			t.Fatalf("MessageFromPayload(id=%T) error = %v", id, err)
		}
		if msg.ID == nil || *msg.ID != 5 {
			t.Errorf("ID = %v for %T id, want 5", msg.ID, id)
		}
		if msg.Params["plugin"] != "p1" {
			t.Errorf("Params[plugin] = %v, want p1", msg.Params["plugin"])
		}
	}

	if _, err := MessageFromPayload(map[string]any{"params": map[string]any{}}); err == nil {
		t.Error("MessageFromPayload() without method succeeded, want error")
	}
	if _, err := MessageFromPayload(map[string]any{"method": "x", "id": "nope"}); err == nil {
		t.Error("MessageFromPayload() with string id succeeded, want error")
	}
}
