package rungauss

import (
	"fmt"
	"strconv"
	"strings"

	"bwestbro.com/gausswrangler/internal/inicfg"
)

type iniWriter struct {
	buf     strings.Builder
	written map[string]bool
}

func (w *iniWriter) add(key, value string) {
	if w.written[key] {
		return
	}
	w.written[key] = true
	fmt.Fprintf(&w.buf, "\n%s = %s", key, value)
}

// IniText returns the config file for a new invocation that runs
// chain. It names the run template, the chain and the template of each
// job in it. When cfg sets up jobs and has follow-up chains, it also
// carries those chains and every setting that differs from its default,
// so that the spawned jobs can be reproduced from this file alone.
func IniText(cfg Config, chain []string) string {
	w := &iniWriter{written: make(map[string]bool)}
	fmt.Fprintf(&w.buf, "[%s]", inicfg.MainSec)
	w.add(KeyRunTpl, cfg.RunTpl)
	w.add(KeyJobList, strings.Join(chain, JobSep))

	if len(cfg.FollowChains) > 0 && cfg.Spawning() {
		w.add(KeyFollowJobList, JoinChains(cfg.FollowChains))
		def := defaults()
		prof := cfg.Profile
		strs := []struct {
			key, value, def string
		}{
			{KeyPartition, prof.Partition, cfg.Defaults.Partition},
			{KeyQOS, prof.QOS, cfg.Defaults.QOS},
			{KeyRunTime, prof.RunTime, cfg.Defaults.RunTime},
			{KeyAccount, prof.Account, cfg.Defaults.Account},
			{KeySbatchTpl, cfg.SbatchTpl, ""},
			{KeyEmail, prof.Email, cfg.Defaults.Email},
			{KeyOldCheckEcho, cfg.OldCheckEcho, def[KeyOldCheckEcho]},
			{KeyInputExt, cfg.InputExt, def[KeyInputExt]},
			{KeyClusterProfile, cfg.ClusterProfile, ""},
		}
		for _, s := range strs {
			if s.value != s.def {
				w.add(s.key, s.value)
			}
		}
		if cfg.AllNew {
			w.add(KeyAllNew, strconv.FormatBool(cfg.AllNew))
		}
		if cfg.OutDir != "" {
			w.add(KeyOutDir, cfg.OutDir)
		}
		if cfg.FirstJobChk != "" {
			w.add(KeyFirstJobChk, cfg.FirstJobChk)
		}
	}
	for _, job := range chain {
		if job != "" {
			w.add(job, cfg.TplPaths[job])
		}
	}
	w.buf.WriteByte('\n')
	return w.buf.String()
}
