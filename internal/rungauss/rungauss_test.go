package rungauss

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bwestbro.com/gausswrangler/internal/cli"
	"bwestbro.com/gausswrangler/internal/cluster"
	"bwestbro.com/gausswrangler/internal/status"
)

const (
	runTpl = `#!/bin/sh
INFILE=chk.txt
echo "{{.job_name}} {{.input_file}}" >> order.txt
{{.old_check_echo}}
echo " Normal termination of Gaussian 16 at Mon Oct 19 11:00:00 2026." > {{.job_name}}.log
`
	failTpl = `#!/bin/sh
echo " Normal termination of Gaussian 16 at Mon Oct 19 11:00:00 2026." > {{.job_name}}.log
echo " Error termination via Lnk1e in /opt/g16/l9999.exe" >> {{.job_name}}.log
`
	fakeSbatch = `#!/bin/sh
echo "$1" >> submitted.txt
echo "Submitted batch job 4242"
`
	petCom = `%chk=pet.chk
# opt b3lyp/6-31g(d)

pet

0 1
C 0.0 0.0 0.0

`
	guessCom = `%chk=pet.chk
# opt b3lyp/6-31g(d)
  guess=read

pet

0 1
C 0.0 0.0 0.0

`
)

// setup moves the test into a fresh directory holding files, the
// default run template and a fake sbatch
func setup(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv(cluster.ProfileEnv, "")
	t.Setenv(cluster.SubmitCmdEnv, filepath.Join(dir, "sbatch"))
	all := map[string]string{
		DefRunTpl:  runTpl,
		"sbatch":   fakeSbatch,
		"pet.com":  petCom,
		"opt.tpl":  "%chk=opt\n",
		"freq.tpl": "%chk=freq\n",
	}
	for k, v := range files {
		all[k] = v
	}
	for name, text := range all {
		if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(name, []byte(text), 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, name string) string {
	t.Helper()
	byts, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return string(byts)
}

func loadConfig(t *testing.T, ini string) Config {
	t.Helper()
	if err := os.WriteFile(DefConfigFile, []byte(ini), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(DefConfigFile)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newTestRunner(cfg Config) (*Runner, *bytes.Buffer) {
	var stdout bytes.Buffer
	return NewRunner(cfg, &stdout, io.Discard, cli.NewLogger(io.Discard, "")), &stdout
}

func TestParseChains(t *testing.T) {
	tests := []struct {
		in   string
		want [][]string
		join string
	}{
		{",opt,freq", [][]string{{"", "opt", "freq"}}, ",opt,freq"},
		{" opt , freq ; stable", [][]string{{"opt", "freq"}, {"stable"}}, "opt,freq;stable"},
		{"", [][]string{{""}}, ""},
		{";", [][]string{{""}, {""}}, ";"},
	}
	for _, test := range tests {
		got := ParseChains(test.in)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("%q: mismatch (-want +got):\n%s", test.in, diff)
		}
		if j := JoinChains(got); j != test.join {
			t.Errorf("got %q, wanted %q\n", j, test.join)
		}
		if again := ParseChains(JoinChains(got)); !cmp.Equal(again, got) {
			t.Errorf("round trip of %q gave %q\n", test.in, again)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	setup(t, map[string]string{"tpls/stable.tpl": "stable\n"})
	cfg := loadConfig(t, `[main]
job_list = ,opt,freq
follow_job_list = stable
stable = tpls/stable.tpl
partition = debug
all_new = yes
`)
	if diff := cmp.Diff([][]string{{"", "opt", "freq"}}, cfg.Chains); diff != "" {
		t.Errorf("chains mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"stable"}}, cfg.FollowChains); diff != "" {
		t.Errorf("follow chains mismatch (-want +got):\n%s", diff)
	}
	wantTpls := map[string]string{
		"opt":    "opt.tpl",
		"freq":   "freq.tpl",
		"stable": "tpls/stable.tpl",
	}
	if diff := cmp.Diff(wantTpls, cfg.TplPaths); diff != "" {
		t.Errorf("templates mismatch (-want +got):\n%s", diff)
	}
	if cfg.Profile.Partition != "debug" || cfg.Defaults.Partition != cluster.DefPartition {
		t.Errorf("got %v and %v, wanted debug and %v\n", cfg.Profile.Partition,
			cfg.Defaults.Partition, cluster.DefPartition)
	}
	if !cfg.AllNew || !cfg.CheckForChk || cfg.StartFromSameChk {
		t.Errorf("got %v %v %v, wanted true true false\n",
			cfg.AllNew, cfg.CheckForChk, cfg.StartFromSameChk)
	}
	if cfg.InputExt != DefInputExt || cfg.OldCheckEcho != DefOldCheckEcho {
		t.Errorf("got %q and %q, wanted defaults\n", cfg.InputExt, cfg.OldCheckEcho)
	}
}

func TestLoadConfigFollowLists(t *testing.T) {
	tests := []struct {
		ini  string
		want [][]string
	}{
		{"[main]\njob_list = ,opt\nfollow_jobs_list = freq\n", [][]string{{"freq"}}},
		{"[main]\njob_list = ,opt\nfollow_job_list =\n", nil},
		{"[main]\njob_list = ,opt\n", nil},
		{"[main]\njob_list = ,opt\nfollow_job_list = freq;opt,freq\n",
			[][]string{{"freq"}, {"opt", "freq"}}},
	}
	for _, test := range tests {
		setup(t, nil)
		cfg := loadConfig(t, test.ini)
		if diff := cmp.Diff(test.want, cfg.FollowChains); diff != "" {
			t.Errorf("%q: mismatch (-want +got):\n%s", test.ini, diff)
		}
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		ini  string
		code int
		msg  string
	}{
		{"missing template", "[main]\njob_list = ,opt,stable\n", status.InvalidData,
			"For job 'stable', could not find a template file 'stable.tpl'"},
		{"missing follow template", "[main]\njob_list = ,opt\nfollow_job_list = irc\n",
			status.InvalidData, "'irc.tpl'"},
		{"missing run template", "[main]\njob_list = ,opt\njob_run_tpl = ghost.tpl\n",
			status.InvalidData, "Could not find the submit template 'ghost.tpl'"},
		{"missing job list", "[main]\nfollow_job_list = opt\n", status.InputError,
			"job_list"},
		{"bad bool", "[main]\njob_list = ,opt\nall_new = maybe\n", status.InputError,
			"all_new"},
	}
	for _, test := range tests {
		setup(t, nil)
		os.WriteFile(DefConfigFile, []byte(test.ini), 0644)
		_, err := LoadConfig(DefConfigFile)
		if got := status.Code(err); got != test.code {
			t.Errorf("%s: got %v, wanted %v\n", test.name, got, test.code)
		}
		if err == nil || !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%s: got %v, wanted it to contain %q\n", test.name, err, test.msg)
		}
	}
	setup(t, nil)
	if _, err := LoadConfig("ghost.ini"); status.Code(err) != status.IOError {
		t.Errorf("got %v, wanted an IO error\n", err)
	}
}

func TestNext(t *testing.T) {
	cfg := Config{
		InputExt:     ".com",
		OldCheckEcho: DefOldCheckEcho,
		TplPaths:     map[string]string{"opt": "tpls/opt.tpl"},
	}
	first, err := Next(cfg, "", "runs/pet", NewJob("pet", "runs/pet.com"))
	if err != nil {
		t.Fatal(err)
	}
	want := Job{Name: "pet", InputFile: "runs/pet.com"}
	if first != want {
		t.Errorf("got %v, wanted %v\n", first, want)
	}
	second, err := Next(cfg, "opt", "runs/pet", first)
	if err != nil {
		t.Fatal(err)
	}
	want = Job{
		Name:         "pet_opt",
		InputFile:    "tpls/opt.tpl",
		OldName:      "pet",
		OldCheckEcho: `echo "%OldChk=pet.chk" >> $INFILE`,
	}
	if second != want {
		t.Errorf("got %v, wanted %v\n", second, want)
	}
	cfg.FirstJobChk = "old"
	first, _ = Next(cfg, "", "runs/pet", NewJob("pet", "runs/pet.com"))
	if got := first.OldCheckEcho; got != `echo "%OldChk=old.chk" >> $INFILE` {
		t.Errorf("got %q, wanted the old checkpoint\n", got)
	}
}

func TestRunJob(t *testing.T) {
	setup(t, nil)
	cfg := loadConfig(t, "[main]\njob_list = ,opt\n")
	r, stdout := newTestRunner(cfg)
	next, err := r.RunJob(context.Background(), "", "pet", NewJob("pet", "pet.com"))
	if err != nil {
		t.Fatal(err)
	}
	if next.Name != "pet" {
		t.Errorf("got %v, wanted %v\n", next.Name, "pet")
	}
	if _, err := os.Stat("pet.sh"); !os.IsNotExist(err) {
		t.Errorf("run script was not removed: %v\n", err)
	}
	want := "Running pet\nSuccessfully completed pet.log\n"
	if got := stdout.String(); got != want {
		t.Errorf("got %q, wanted %q\n", got, want)
	}
}

func TestRunJobMissingInput(t *testing.T) {
	setup(t, nil)
	cfg := loadConfig(t, "[main]\njob_list = ,opt\n")
	r, stdout := newTestRunner(cfg)
	_, err := r.RunJob(context.Background(), "", "ghost", NewJob("ghost", "ghost.com"))
	if got := status.Code(err); got != status.IOError {
		t.Errorf("got %v, wanted %v\n", got, status.IOError)
	}
	if _, err := os.Stat("ghost.sh"); !os.IsNotExist(err) {
		t.Errorf("run script should not have been written\n")
	}
	if _, err := os.Stat("order.txt"); !os.IsNotExist(err) {
		t.Errorf("a process was spawned\n")
	}
	if stdout.Len() != 0 {
		t.Errorf("got %q, wanted no output\n", stdout.String())
	}
}

func TestRunJobFailed(t *testing.T) {
	setup(t, map[string]string{DefRunTpl: failTpl})
	cfg := loadConfig(t, "[main]\njob_list = ,opt\n")
	r, _ := newTestRunner(cfg)
	_, err := r.RunJob(context.Background(), "", "pet", NewJob("pet", "pet.com"))
	if got := status.Code(err); got != status.InvalidData {
		t.Errorf("got %v, wanted %v\n", got, status.InvalidData)
	}
	if err == nil || err.Error() != "Job failed: pet.log" {
		t.Errorf("got %v, wanted %q\n", err, "Job failed: pet.log")
	}
	if _, err := os.Stat("pet.sh"); err != nil {
		t.Errorf("run script should be kept: %v\n", err)
	}
}

func TestRunJobTesting(t *testing.T) {
	setup(t, map[string]string{DefRunTpl: "#!/bin/sh\necho running > {{.job_name}}.log\n"})
	cfg := loadConfig(t, "[main]\njob_list = ,opt\nout_dir = scripts\n")
	os.Mkdir("scripts", 0755)
	cfg.Testing = true
	r, stdout := newTestRunner(cfg)
	if _, err := r.RunJob(context.Background(), "", "pet", NewJob("pet", "pet.com")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "Testing mode") {
		t.Errorf("got %q, wanted the testing message\n", stdout.String())
	}
	if _, err := os.Stat(filepath.Join("scripts", "pet.sh")); err != nil {
		t.Errorf("run script should be in out_dir: %v\n", err)
	}
}

func TestRunJobExitCode(t *testing.T) {
	setup(t, map[string]string{DefRunTpl: "#!/bin/sh\nexit 3\n"})
	cfg := loadConfig(t, "[main]\njob_list = ,opt\n")
	r, _ := newTestRunner(cfg)
	_, err := r.RunJob(context.Background(), "", "pet", NewJob("pet", "pet.com"))
	if got := status.Code(err); got != status.InvalidData {
		t.Errorf("got %v, wanted %v\n", got, status.InvalidData)
	}
}

func TestSbatchValues(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.com")
	guess := filepath.Join(dir, "guess.com")
	os.WriteFile(plain, []byte(petCom), 0644)
	os.WriteFile(guess, []byte(guessCom), 0644)
	tests := []struct {
		name    string
		input   string
		chk     string
		same    bool
		check   bool
		chain   []string
		wantOpt string
		wantErr bool
	}{
		{"guard trips", guess, "", false, true, []string{"", "opt"}, "", true},
		{"checkpoint given", guess, "old", false, true, []string{"", "opt"}, "-o old", false},
		{"same checkpoint", guess, "", true, true, []string{"", "opt"}, "-o pet", false},
		{"no directive", plain, "", false, true, []string{"", "opt"}, "", false},
		{"check disabled", guess, "", false, false, []string{"", "opt"}, "", false},
		{"not the initial job", guess, "", false, true, []string{"opt"}, "", false},
	}
	for _, test := range tests {
		cfg := Config{
			FirstJobChk:      test.chk,
			StartFromSameChk: test.same,
			CheckForChk:      test.check,
			Profile:          cluster.Default(),
		}
		r, _ := newTestRunner(cfg)
		got, err := r.SbatchValues(NewJob("pet", test.input), "pet.ini", test.chain)
		if test.wantErr {
			if status.Code(err) != status.InvalidData {
				t.Errorf("%s: got %v, wanted a data error\n", test.name, err)
			} else if !strings.Contains(err.Error(), "route:  guess=read") {
				t.Errorf("%s: got %v, wanted it to name the route\n", test.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v\n", test.name, err)
			continue
		}
		if got[PhOptOldName] != test.wantOpt {
			t.Errorf("%s: got %q, wanted %q\n", test.name, got[PhOptOldName], test.wantOpt)
		}
	}
}

func TestSbatchValuesEmail(t *testing.T) {
	cfg := Config{Profile: cluster.Default(), FirstJobChk: "old"}
	cfg.Profile.Email = "me@example.com"
	r, _ := newTestRunner(cfg)
	got, err := r.SbatchValues(NewJob("pet", "pet.com"), "pet.ini", []string{""})
	if err != nil {
		t.Fatal(err)
	}
	want := "#SBATCH --mail-type=FAIL\n#SBATCH --mail-type=END\n#SBATCH --mail-user=me@example.com"
	if got[PhEmail] != want {
		t.Errorf("got %q, wanted %q\n", got[PhEmail], want)
	}
}

func TestIniText(t *testing.T) {
	cfg := Config{
		RunTpl:       DefRunTpl,
		InputExt:     DefInputExt,
		OldCheckEcho: DefOldCheckEcho,
		FollowChains: [][]string{{"freq"}, {"stable"}},
		TplPaths:     map[string]string{"opt": "tpls/opt.tpl"},
		AllNew:       true,
		OutDir:       "out",
		Defaults:     cluster.Default(),
		Profile:      cluster.Default(),
	}
	cfg.Profile.Partition = "debug"
	cfg.Profile.Email = "me@example.com"
	chain := []string{"", "opt"}

	got := IniText(cfg, chain)
	want := "[main]\njob_run_tpl = run_gauss_job.tpl\njob_list = ,opt\nopt = tpls/opt.tpl\n"
	if got != want {
		t.Errorf("got\n%s, wanted\n%s\n", got, want)
	}

	cfg.SetupSubmit = true
	got = IniText(cfg, chain)
	want = `[main]
job_run_tpl = run_gauss_job.tpl
job_list = ,opt
follow_job_list = freq;stable
partition = debug
email = me@example.com
all_new = true
out_dir = out
opt = tpls/opt.tpl
`
	if got != want {
		t.Errorf("got\n%s, wanted\n%s\n", got, want)
	}
}

func TestSetupAndSubmit(t *testing.T) {
	setup(t, nil)
	cfg := loadConfig(t, "[main]\njob_list = ,opt\nstart_from_job_name_chk = false\n")
	cfg.SetupSubmit = true
	r, stdout := newTestRunner(cfg)
	err := r.SetupAndSubmit(context.Background(), "", []string{"", "opt"},
		NewJob("pet", "pet.com"))
	if err != nil {
		t.Fatal(err)
	}
	slurm := readFile(t, "pet.slurm")
	for _, want := range []string{
		"#SBATCH --account=bpms\n",
		"#SBATCH --partition=short\n",
		"#SBATCH --job-name=pet\n",
		"run_gauss pet -c pet.ini \n",
	} {
		if !strings.Contains(slurm, want) {
			t.Errorf("sbatch script is missing %q:\n%s", want, slurm)
		}
	}
	wantIni := "[main]\njob_run_tpl = run_gauss_job.tpl\njob_list = ,opt\nopt = opt.tpl\n"
	if got := readFile(t, "pet.ini"); got != wantIni {
		t.Errorf("got\n%s, wanted\n%s\n", got, wantIni)
	}
	if got := readFile(t, "submitted.txt"); got != "pet.slurm\n" {
		t.Errorf("got %q, wanted %q\n", got, "pet.slurm\n")
	}
	want := "Wrote file: pet.slurm\nWrote file: pet.ini\nSubmitted batch job 4242\n"
	if got := stdout.String(); got != want {
		t.Errorf("got %q, wanted %q\n", got, want)
	}
}

func TestSetupAndSubmitGuard(t *testing.T) {
	setup(t, map[string]string{"pet.com": guessCom})
	cfg := loadConfig(t, "[main]\njob_list = ,opt\n")
	cfg.SetupSubmit = true
	r, _ := newTestRunner(cfg)
	err := r.SetupAndSubmit(context.Background(), "", []string{"", "opt"},
		NewJob("pet", "pet.com"))
	if got := status.Code(err); got != status.InvalidData {
		t.Errorf("got %v, wanted %v\n", got, status.InvalidData)
	}
	if _, err := os.Stat("submitted.txt"); !os.IsNotExist(err) {
		t.Errorf("job was submitted despite the guard\n")
	}
}

func TestMainRunsChainInOrder(t *testing.T) {
	setup(t, nil)
	os.WriteFile(DefConfigFile, []byte(`[main]
job_list = ,opt,freq
follow_jobs_list =
all_new = False
`), 0644)
	var stdout, stderr bytes.Buffer
	if code := Main([]string{"pet", "-c", DefConfigFile}, &stdout, &stderr); code != status.GoodRet {
		t.Fatalf("got %v, wanted %v: %s\n", code, status.GoodRet, stderr.String())
	}
	wantOrder := "pet pet.com\npet_opt opt.tpl\npet_opt_freq freq.tpl\n"
	if got := readFile(t, "order.txt"); got != wantOrder {
		t.Errorf("got\n%s, wanted\n%s\n", got, wantOrder)
	}
	wantChk := "%OldChk=pet.chk\n%OldChk=pet_opt.chk\n"
	if got := readFile(t, "chk.txt"); got != wantChk {
		t.Errorf("got\n%s, wanted\n%s\n", got, wantChk)
	}
	for _, s := range []string{"pet.sh", "pet_opt.sh", "pet_opt_freq.sh"} {
		if _, err := os.Stat(s); !os.IsNotExist(err) {
			t.Errorf("%s was not removed\n", s)
		}
	}
	want := `Running pet
Successfully completed pet.log
Running pet_opt
Successfully completed pet_opt.log
Running pet_opt_freq
Successfully completed pet_opt_freq.log
`
	if got := stdout.String(); got != want {
		t.Errorf("got\n%s, wanted\n%s\n", got, want)
	}
	if _, err := os.Stat("submitted.txt"); !os.IsNotExist(err) {
		t.Errorf("nothing should have been submitted\n")
	}
}

func TestMainFollowChains(t *testing.T) {
	setup(t, map[string]string{"stable.tpl": "stable\n"})
	os.WriteFile(DefConfigFile, []byte(`[main]
job_list = ,opt
follow_job_list = freq;stable
`), 0644)
	var stdout, stderr bytes.Buffer
	if code := Main([]string{"pet.com"}, &stdout, &stderr); code != status.GoodRet {
		t.Fatalf("got %v, wanted %v: %s\n", code, status.GoodRet, stderr.String())
	}
	wantOrder := "pet pet.com\npet_opt opt.tpl\npet_opt_freq freq.tpl\n"
	if got := readFile(t, "order.txt"); got != wantOrder {
		t.Errorf("got\n%s, wanted\n%s\n", got, wantOrder)
	}
	if got := readFile(t, "submitted.txt"); got != "run_gauss1.slurm\n" {
		t.Errorf("got %q, wanted %q\n", got, "run_gauss1.slurm\n")
	}
	wantIni := "[main]\njob_run_tpl = run_gauss_job.tpl\njob_list = stable\nstable = stable.tpl\n"
	if got := readFile(t, "run_gauss1.ini"); got != wantIni {
		t.Errorf("got\n%s, wanted\n%s\n", got, wantIni)
	}
	if !strings.Contains(readFile(t, "run_gauss1.slurm"), "run_gauss pet_opt -c run_gauss1.ini") {
		t.Errorf("submission should continue from pet_opt\n")
	}
	out := stdout.String()
	if strings.Index(out, "Submitted") > strings.Index(out, "Running pet_opt_freq") {
		t.Errorf("follow-up chains should be submitted before the first one runs:\n%s", out)
	}
}

func TestMainAllNew(t *testing.T) {
	setup(t, map[string]string{"stable.tpl": "stable\n"})
	os.WriteFile(DefConfigFile, []byte(`[main]
job_list = ,opt
follow_job_list = freq;stable
all_new = true
`), 0644)
	var stdout, stderr bytes.Buffer
	if code := Main([]string{"pet", "-t"}, &stdout, &stderr); code != status.GoodRet {
		t.Fatalf("got %v, wanted %v: %s\n", code, status.GoodRet, stderr.String())
	}
	if got := readFile(t, "submitted.txt"); got != "run_gauss0.slurm\nrun_gauss1.slurm\n" {
		t.Errorf("got %q, wanted both follow-up chains submitted\n", got)
	}
	if got := readFile(t, "order.txt"); got != "pet pet.com\npet_opt opt.tpl\n" {
		t.Errorf("got %q, wanted only the primary chain run\n", got)
	}
}

func TestMainSetupSubmit(t *testing.T) {
	setup(t, nil)
	os.WriteFile(DefConfigFile, []byte(`[main]
job_list = ,opt;freq
follow_job_list = opt
partition = debug
`), 0644)
	var stdout, stderr bytes.Buffer
	code := Main([]string{"pet", "-s", "-n", "-o", "old.chk"}, &stdout, &stderr)
	if code != status.GoodRet {
		t.Fatalf("got %v, wanted %v: %s\n", code, status.GoodRet, stderr.String())
	}
	for _, name := range []string{"pet0.slurm", "pet0.ini", "pet1.slurm", "pet1.ini"} {
		if _, err := os.Stat(name); err != nil {
			t.Errorf("%s was not written\n", name)
		}
	}
	if _, err := os.Stat("submitted.txt"); !os.IsNotExist(err) {
		t.Errorf("-n should not submit\n")
	}
	want := `[main]
job_run_tpl = run_gauss_job.tpl
job_list = freq
follow_job_list = opt
partition = debug
chk_for_first_job = old
freq = freq.tpl
`
	if got := readFile(t, "pet1.ini"); got != want {
		t.Errorf("got\n%s, wanted\n%s\n", got, want)
	}
	if !strings.Contains(readFile(t, "pet0.slurm"), "run_gauss pet -c pet0.ini -o old\n") {
		t.Errorf("sbatch script should start from the old checkpoint\n")
	}
}

func TestMainListOfJobs(t *testing.T) {
	setup(t, map[string]string{
		"list.txt":    "pet.com\n\nsub/pbt.log\n",
		"sub/pbt.com": petCom,
	})
	os.WriteFile(DefConfigFile, []byte("[main]\njob_list = ,opt\n"), 0644)
	var stdout, stderr bytes.Buffer
	code := Main([]string{"list.txt", "-l"}, &stdout, &stderr)
	if code != status.GoodRet {
		t.Fatalf("got %v, wanted %v: %s\n", code, status.GoodRet, stderr.String())
	}
	if got := readFile(t, "submitted.txt"); got != "pet.slurm\npbt.slurm\n" {
		t.Errorf("got %q, wanted %q\n", got, "pet.slurm\npbt.slurm\n")
	}
}

func TestMainErrors(t *testing.T) {
	tests := []struct {
		name string
		ini  string
		args []string
		want int
	}{
		{"help", "", []string{"-h"}, status.GoodRet},
		{"long help", "", []string{"--help"}, status.GoodRet},
		{"unknown flag", "", []string{"pet", "-x"}, status.InputError},
		{"no job name", "", []string{}, status.InputError},
		{"both modes", "[main]\njob_list = ,opt\n", []string{"pet", "-s", "-l"}, status.InputError},
		{"missing list", "[main]\njob_list = ,opt\n", []string{"jobs.txt", "-l"}, status.IOError},
		{"missing config", "", []string{"pet", "-c", "ghost.ini"}, status.IOError},
		{"threads without -s", "[main]\njob_list = ,opt;freq\n", []string{"pet"}, status.InputError},
		{"missing input", "[main]\njob_list = ,opt\n", []string{"ghost"}, status.IOError},
	}
	for _, test := range tests {
		setup(t, nil)
		if test.ini != "" {
			os.WriteFile(DefConfigFile, []byte(test.ini), 0644)
		}
		var stdout, stderr bytes.Buffer
		if got := Main(test.args, &stdout, &stderr); got != test.want {
			t.Errorf("%s: got %v, wanted %v\n%s", test.name, got, test.want, stderr.String())
		}
	}
}

// chdir changes the working directory for the duration of the test,
// like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
