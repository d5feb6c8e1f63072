package config

import "testing"

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()
	var c Config
	c.SetDefaults()

	if c.Backend != DefaultBackend {
		t.Errorf("Backend default = %q, want %q", c.Backend, DefaultBackend)
	}
	if c.Addr != DefaultAddr {
		t.Errorf("Addr default = %q, want %q", c.Addr, DefaultAddr)
	}
	if c.LogLevel != "info" {
		t.Errorf("LogLevel default = %q, want info", c.LogLevel)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"nil backend ok", Config{Backend: "nil", Addr: "localhost:6174", LogLevel: "info"}, false},
		{"file backend ok", Config{Backend: "file:/var/lib/gatehouse", Addr: "localhost:6174"}, false},
		{"bolt backend ok", Config{Backend: "bolt:/var/lib/gatehouse.db", Addr: "localhost:6174"}, false},
		{"empty backend rejected", Config{Backend: "", Addr: "localhost:6174"}, true},
		{"bare file prefix rejected", Config{Backend: "file:", Addr: "localhost:6174"}, true},
		{"unknown backend rejected", Config{Backend: "redis:localhost", Addr: "localhost:6174"}, true},
		{"bad log level rejected", Config{Backend: "nil", LogLevel: "verbose"}, true},
		{"bad addr rejected", Config{Backend: "nil", Addr: "not a host port"}, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
