package config

import "time"

// Daemon is the daemon-wide configuration loaded once at startup,
// spec.md §6. Held by shared reference, never mutated after load —
// the teacher's package-level `Config` struct (globals.go) collapsed
// into one immutable value instead of a process-global var.
type Daemon struct {
	DataDir                      string
	PollInterval                 time.Duration
	RelayURLs                    []string
	ReplayRetentionTurns         int
	ReplayRetentionDays          int
	ReplayRetentionDaysDefinition int
	ReplayRetentionDaysState    int
}

// DefaultDaemon returns sane defaults, overridden field-by-field by
// a loaded config file.
func DefaultDaemon() Daemon {
	return Daemon{
		DataDir:                      "./data",
		PollInterval:                 5 * time.Second,
		ReplayRetentionTurns:         200,
		ReplayRetentionDays:          30,
		ReplayRetentionDaysDefinition: 7,
		ReplayRetentionDaysState:    14,
	}
}

// LoadDaemon reads a KDL daemon config file at path, applying
// defaults for any node not present.
func LoadDaemon(path string) (Daemon, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return Daemon{}, err
	}
	d := DefaultDaemon()
	for _, n := range doc.Nodes {
		switch n.Name {
		case "data_dir":
			if s, ok := n.StringArg(0); ok {
				d.DataDir = s
			}
		case "poll_interval":
			if i, ok := n.IntArg(0); ok {
				d.PollInterval = time.Duration(i) * time.Second
			}
		case "relay_urls":
			d.RelayURLs = n.StringArgs()
		case "replay_retention_turns":
			if i, ok := n.IntArg(0); ok {
				d.ReplayRetentionTurns = i
			}
		case "replay_retention_days":
			if i, ok := n.IntArg(0); ok {
				d.ReplayRetentionDays = i
			}
		case "replay_retention_days_definition":
			if i, ok := n.IntArg(0); ok {
				d.ReplayRetentionDaysDefinition = i
			}
		case "replay_retention_days_state":
			if i, ok := n.IntArg(0); ok {
				d.ReplayRetentionDaysState = i
			}
		}
	}
	return d, nil
}
