// Package cluster loads the site profile describing how jobs are sent
// to the queue: partition, account, run time and the submit command.
package cluster

import (
	"os"

	"github.com/BurntSushi/toml"

	"bwestbro.com/gausswrangler/internal/status"
)

// Environment variables consulted by LoadProfile and the submitters
const (
	ProfileEnv   = "GAUSSW_PROFILE"
	SubmitCmdEnv = "GAUSSW_SUBMIT_CMD"
)

// Defaults used when no profile is given
const (
	DefPartition = "short"
	DefRunTime   = "4:00:00"
	DefAccount   = "bpms"
	DefQOS       = "normal"
	DefSubmitCmd = "sbatch"
)

// RawProfile mirrors the TOML file
type RawProfile struct {
	Partition string `toml:"partition"`
	RunTime   string `toml:"run_time"`
	Account   string `toml:"account"`
	QOS       string `toml:"qos"`
	Email     string `toml:"email"`
	SubmitCmd string `toml:"submit_cmd"`
}

// ToProfile converts rp to a Profile, letting the environment override
// the submit command
func (rp RawProfile) ToProfile() (p Profile) {
	p.Partition = rp.Partition
	p.RunTime = rp.RunTime
	p.Account = rp.Account
	p.QOS = rp.QOS
	p.Email = rp.Email
	p.SubmitCmd = rp.SubmitCmd
	if cmd := os.Getenv(SubmitCmdEnv); cmd != "" {
		p.SubmitCmd = cmd
	}
	return
}

// Profile holds the queue settings for a cluster
type Profile struct {
	Partition string
	RunTime   string
	Account   string
	QOS       string
	Email     string
	SubmitCmd string
}

// Default returns the built-in profile
func Default() Profile {
	return defaultRaw().ToProfile()
}

func defaultRaw() RawProfile {
	return RawProfile{
		Partition: DefPartition,
		RunTime:   DefRunTime,
		Account:   DefAccount,
		QOS:       DefQOS,
		SubmitCmd: DefSubmitCmd,
	}
}

// LoadProfile decodes the TOML file filename on top of the defaults. An
// empty filename falls back to ProfileEnv, and to the defaults when
// that is unset too.
func LoadProfile(filename string) (Profile, error) {
	if filename == "" {
		filename = os.Getenv(ProfileEnv)
	}
	rp := defaultRaw()
	if filename == "" {
		return rp.ToProfile(), nil
	}
	byts, err := os.ReadFile(filename)
	if err != nil {
		return Profile{}, status.Errorf(status.IO,
			"Could not read cluster profile %s", filename)
	}
	md, err := toml.Decode(string(byts), &rp)
	if err != nil {
		return Profile{}, status.Errorf(status.Input,
			"Could not parse cluster profile %s: %v", filename, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Profile{}, status.Errorf(status.Input,
			"Unrecognized key '%s' in cluster profile %s", undec[0], filename)
	}
	return rp.ToProfile(), nil
}
