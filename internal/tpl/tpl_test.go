package tpl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bwestbro.com/gausswrangler/internal/status"
)

func TestFill(t *testing.T) {
	got, err := Fill("run", "#!/bin/bash\nINFILE={{.input_file}}\n{{.old_check_echo}}\ng16 < $INFILE > {{.job_name}}.log\n",
		map[string]string{
			"input_file":     "pet.com",
			"old_check_echo": "",
			"job_name":       "pet_opt",
		})
	if err != nil {
		t.Fatal(err)
	}
	want := "#!/bin/bash\nINFILE=pet.com\n\ng16 < $INFILE > pet_opt.log\n"
	if got != want {
		t.Errorf("got\n%q, wanted\n%q\n", got, want)
	}
}

func TestFillMissingKey(t *testing.T) {
	_, err := Fill("sbatch.tpl", "#SBATCH --account={{.account}}\n",
		map[string]string{"partition": "short"})
	if status.Code(err) != status.InvalidData {
		t.Errorf("got %v, wanted a data error\n", err)
	}
	if err == nil || !strings.Contains(err.Error(), "account") {
		t.Errorf("error should name the missing key, got %v\n", err)
	}
}

func TestFillSave(t *testing.T) {
	name := filepath.Join(t.TempDir(), "job.sh")
	err := FillSave("run", "echo {{.job_name}}\n",
		map[string]string{"job_name": "x"}, name, 0755)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(name)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0100 == 0 {
		t.Errorf("got mode %v, wanted it executable\n", info.Mode())
	}
}
