// Package config provides Gatehouse's configuration schema: which storage
// backend to run against, where to listen, and how verbosely to log.
package config

// Config is the top-level configuration for a gatehouse serve process.
type Config struct {
	// Backend selects the storage backend, spec §6's shape:
	// "nil" (no persistence, tests/demos), "file:<path>" (one JSON file per
	// record under <path>), or "bolt:<path>" (a single bbolt file exposing
	// a watchable change stream).
	Backend string `yaml:"backend" mapstructure:"backend" validate:"required,backend_spec"`

	// Addr is the host:port the RPC surface listens on. Defaults to
	// "localhost:6174".
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum slog level: debug, info, warn, error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// SeedFile optionally points at a YAML file of targets/actors/roles/
	// groups/policies to apply at every startup; entries that fail to add
	// (for example because they already exist) are logged and skipped.
	SeedFile string `yaml:"seed_file" mapstructure:"seed_file"`
}

// DefaultAddr is the RPC listen address used when Addr is unset, matching
// the "GATEPORT defaults to 6174" convention from §6.
const DefaultAddr = "localhost:6174"

// DefaultBackend matches §6: "file:/tmp/gatehouse" when unset.
const DefaultBackend = "file:/tmp/gatehouse"

// SetDefaults fills in zero-valued optional fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Seed describes the optional startup seed file's shape: one list per
// entity kind, enough to stand up a small policy graph without a separate
// round of CLI calls.
type Seed struct {
	Targets  []SeedTarget `yaml:"targets"`
	Actors   []SeedActor  `yaml:"actors"`
	Roles    []SeedRole   `yaml:"roles"`
	Groups   []SeedGroup  `yaml:"groups"`
	Policies []SeedPolicy `yaml:"policies"`
}

// SeedTarget is one target entry in a seed file.
type SeedTarget struct {
	Name       string              `yaml:"name"`
	Typestr    string              `yaml:"typestr"`
	Actions    []string            `yaml:"actions"`
	Attributes map[string][]string `yaml:"attributes"`
}

// SeedActor is one actor entry in a seed file.
type SeedActor struct {
	Name       string              `yaml:"name"`
	Typestr    string              `yaml:"typestr"`
	Attributes map[string][]string `yaml:"attributes"`
}

// SeedRole is one role entry in a seed file.
type SeedRole struct {
	Name string `yaml:"name"`
	Desc string `yaml:"desc"`
}

// SeedGroup is one group entry in a seed file.
type SeedGroup struct {
	Name    string       `yaml:"name"`
	Desc    string       `yaml:"desc"`
	Members []SeedMember `yaml:"members"`
	Roles   []string     `yaml:"roles"`
}

// SeedMember is one (typestr, name) member reference in a seed group.
type SeedMember struct {
	Typestr string `yaml:"typestr"`
	Name    string `yaml:"name"`
}

// SeedPolicy is one policy rule entry in a seed file. The check fields use
// the same compact string form as the gatehouse CLI's flags (e.g.
// "one_of:v1,v2", "key:has:v1,v2", "equals:N") so a seed file can be
// hand-written the same way a CLI invocation is.
type SeedPolicy struct {
	Name         string   `yaml:"name"`
	Desc         string   `yaml:"desc"`
	Decision     string   `yaml:"decision"`
	ActorName    string   `yaml:"actor_name"`
	ActorType    string   `yaml:"actor_type"`
	ActorKv      []string `yaml:"actor_kv"`
	ActorBucket  string   `yaml:"actor_bucket"`
	EnvKv        []string `yaml:"env_kv"`
	TargetName   string   `yaml:"target_name"`
	TargetType   string   `yaml:"target_type"`
	TargetKv     []string `yaml:"target_kv"`
	MatchInActor []string `yaml:"match_in_actor"`
	MatchInEnv   []string `yaml:"match_in_env"`
	TargetAction string   `yaml:"target_action"`
}
