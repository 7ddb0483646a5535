package rungauss

import (
	"strings"

	"bwestbro.com/gausswrangler/internal/cluster"
	"bwestbro.com/gausswrangler/internal/fsutil"
	"bwestbro.com/gausswrangler/internal/inicfg"
	"bwestbro.com/gausswrangler/internal/status"
)

// Defaults
const (
	DefConfigFile   = "run_gauss.ini"
	DefRunTpl       = "run_gauss_job.tpl"
	DefInputExt     = ".com"
	DefOldCheckEcho = `echo "%OldChk={{.old_job_name}}.chk" >> $INFILE`
)

// Config keys
const (
	KeyJobList          = "job_list"
	KeyFollowJobList    = "follow_job_list"
	KeyFollowJobsList   = "follow_jobs_list"
	KeyInputExt         = "gaussian_input_ext"
	KeyRunTpl           = "job_run_tpl"
	KeyFirstJobChk      = "chk_for_first_job"
	KeyOldCheckEcho     = "old_check_echo"
	KeySbatchTpl        = "sbatch_tpl"
	KeyPartition        = "partition"
	KeyRunTime          = "run_time"
	KeyAccount          = "account"
	KeyQOS              = "qos"
	KeyEmail            = "email"
	KeyAllNew           = "all_new"
	KeyOutDir           = "out_dir"
	KeyStartFromSameChk = "start_from_job_name_chk"
	KeyCheckForChk      = "check_for_chk"
	KeyClusterProfile   = "cluster_profile"
)

// Separators in job list values
const (
	ThreadSep = ";"
	JobSep    = ","
)

func defaults() map[string]string {
	return map[string]string{
		KeyInputExt:         DefInputExt,
		KeyRunTpl:           DefRunTpl,
		KeyOldCheckEcho:     DefOldCheckEcho,
		KeyAllNew:           "false",
		KeyStartFromSameChk: "false",
		KeyCheckForChk:      "true",
	}
}

// Config is the processed configuration of one invocation. It is
// built once by LoadConfig and the command line and not changed after.
type Config struct {
	ConfigFile   string
	OutDir       string
	InputExt     string
	RunTpl       string
	Chains       [][]string
	FollowChains [][]string
	// TplPaths maps each named job to its template file
	TplPaths     map[string]string
	FirstJobChk  string
	OldCheckEcho string
	SbatchTpl    string
	AllNew       bool
	// StartFromSameChk makes a submitted chain start from the
	// checkpoint named after the current job
	StartFromSameChk bool
	CheckForChk      bool
	ClusterProfile   string

	// Profile holds the queue settings, after the config file's own
	// partition, run_time, account, qos and email keys are applied
	Profile cluster.Profile
	// Defaults is the profile before those keys are applied
	Defaults cluster.Profile

	// from the command line
	SetupSubmit bool
	ListOfJobs  bool
	NoSubmit    bool
	Testing     bool
}

// Spawning reports whether the invocation sets up jobs rather than
// running them
func (c Config) Spawning() bool {
	return c.SetupSubmit || c.ListOfJobs
}

// ParseChains splits s into threads on ThreadSep and each thread into
// job names on JobSep, trimming whitespace around every name
func ParseChains(s string) [][]string {
	threads := strings.Split(s, ThreadSep)
	ret := make([][]string, 0, len(threads))
	for _, thread := range threads {
		jobs := strings.Split(thread, JobSep)
		for i := range jobs {
			jobs[i] = strings.TrimSpace(jobs[i])
		}
		ret = append(ret, jobs)
	}
	return ret
}

// JoinChains is the inverse of ParseChains
func JoinChains(chains [][]string) string {
	threads := make([]string, len(chains))
	for i, c := range chains {
		threads[i] = strings.Join(c, JobSep)
	}
	return strings.Join(threads, ThreadSep)
}

// LoadConfig reads the run_gauss configuration file path and resolves
// the template of every job it names
func LoadConfig(path string) (Config, error) {
	sec, err := inicfg.Load(path, defaults(), []string{KeyJobList})
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		ConfigFile:     path,
		OutDir:         sec.Str(KeyOutDir),
		InputExt:       sec.Str(KeyInputExt),
		RunTpl:         sec.Str(KeyRunTpl),
		FirstJobChk:    sec.Str(KeyFirstJobChk),
		OldCheckEcho:   sec.Str(KeyOldCheckEcho),
		SbatchTpl:      sec.Str(KeySbatchTpl),
		ClusterProfile: sec.Str(KeyClusterProfile),
		Chains:         ParseChains(sec.Str(KeyJobList)),
		TplPaths:       make(map[string]string),
	}
	follow, ok := sec.Lookup(KeyFollowJobList)
	if !ok {
		follow = sec.Str(KeyFollowJobsList)
	}
	if strings.TrimSpace(follow) != "" {
		cfg.FollowChains = ParseChains(follow)
	}
	for key, p := range map[string]*bool{
		KeyAllNew:           &cfg.AllNew,
		KeyStartFromSameChk: &cfg.StartFromSameChk,
		KeyCheckForChk:      &cfg.CheckForChk,
	} {
		if *p, err = sec.Bool(key); err != nil {
			return Config{}, err
		}
	}

	cfg.Defaults, err = cluster.LoadProfile(cfg.ClusterProfile)
	if err != nil {
		return Config{}, err
	}
	cfg.Profile = cfg.Defaults
	for key, p := range map[string]*string{
		KeyPartition: &cfg.Profile.Partition,
		KeyRunTime:   &cfg.Profile.RunTime,
		KeyAccount:   &cfg.Profile.Account,
		KeyQOS:       &cfg.Profile.QOS,
		KeyEmail:     &cfg.Profile.Email,
	} {
		if v, ok := sec.Lookup(key); ok {
			*p = v
		}
	}

	for _, chains := range [][][]string{cfg.Chains, cfg.FollowChains} {
		for _, chain := range chains {
			for _, job := range chain {
				if err := cfg.resolve(sec, job); err != nil {
					return Config{}, err
				}
			}
		}
	}
	if !fsutil.Exists(cfg.RunTpl) {
		return Config{}, status.Errorf(status.Data,
			"Could not find the submit template '%s'", cfg.RunTpl)
	}
	return cfg, nil
}

// resolve finds the template for job: the value of the config key of
// the same name, or <job>.tpl
func (c *Config) resolve(sec *inicfg.Section, job string) error {
	if job == "" {
		return nil
	}
	if _, ok := c.TplPaths[job]; ok {
		return nil
	}
	name, ok := sec.Lookup(strings.ToLower(job))
	if !ok {
		name = job + ".tpl"
	}
	if !fsutil.Exists(name) {
		return status.Errorf(status.Data,
			"For job '%s', could not find a template file '%s'\n"+
				"You may specify the template to use (including path) "+
				"using %s as a key in the config file.", job, name, job)
	}
	c.TplPaths[job] = name
	return nil
}
