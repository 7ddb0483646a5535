package fsutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
)

func TestOutName(t *testing.T) {
	tests := []struct {
		src, suffix, ext, dir string
		want                  string
	}{
		{"pet_mono", "", ".sh", "", "pet_mono.sh"},
		{"data/pet_mono.com", "", ".pdb", "", "data/pet_mono.pdb"},
		{"data/pet_mono.com", "_1", ".com", "out", "out/pet_mono_1.com"},
		{"run_gauss.ini", "0", ".slurm", "", "run_gauss0.slurm"},
		{"a/b.log", "_conv_steps", ".csv", "", "a/b_conv_steps.csv"},
		{"a/b.log", "_x", "", "", "a/b_x.log"},
	}
	for _, test := range tests {
		got := OutName(test.src, test.suffix, test.ext, test.dir)
		if got != test.want {
			t.Errorf("OutName(%q, %q, %q, %q): got %v, wanted %v\n",
				test.src, test.suffix, test.ext, test.dir, got, test.want)
		}
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"trailing newline", "a\n Normal termination of Gaussian 16 at Sun\n",
			"Normal termination of Gaussian 16 at Sun"},
		{"no trailing newline", "a\nb", "b"},
		{"trailing blank line", "a\nNormal termination of Gaussian\n\n", ""},
		{"single line", "only\n", "only"},
		{"empty", "", ""},
	}
	dir := t.TempDir()
	for _, test := range tests {
		name := filepath.Join(dir, "x.log")
		if err := os.WriteFile(name, []byte(test.content), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := LastLine(name)
		if err != nil {
			t.Fatal(err)
		}
		if got != test.want {
			t.Errorf("%s: got %q, wanted %q\n", test.name, got, test.want)
		}
	}
}

func TestLastLineLong(t *testing.T) {
	body := strings.Repeat(" Step number   1 out of a maximum of   20\n", 500)
	long := strings.Repeat("x", 3*tailChunk)
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"many lines", body + " Normal termination of Gaussian 16\n", "Normal termination of Gaussian 16"},
		{"long last line", body + long + "\n", long},
		{"one long line", long, long},
		{"newline at chunk edge", body + strings.Repeat("y", tailChunk-1) + "\n",
			strings.Repeat("y", tailChunk-1)},
	}
	dir := t.TempDir()
	for _, test := range tests {
		for _, name := range []string{"x.log", "x.log.gz"} {
			filename := filepath.Join(dir, name)
			data := []byte(test.content)
			if strings.HasSuffix(name, GzipExt) {
				var buf bytes.Buffer
				zw := gzip.NewWriter(&buf)
				zw.Write(data)
				zw.Close()
				data = buf.Bytes()
			}
			if err := os.WriteFile(filename, data, 0644); err != nil {
				t.Fatal(err)
			}
			got, err := LastLine(filename)
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Errorf("%s %s: got %q, wanted %q\n", test.name, name, got, test.want)
			}
		}
	}
}

func TestLastLineMissing(t *testing.T) {
	_, err := LastLine(filepath.Join(t.TempDir(), "ghost.log"))
	if !os.IsNotExist(err) {
		t.Errorf("got %v, wanted a not-exist error\n", err)
	}
}

func TestOpenGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(" SCF Done:  E(RB3LYP) =  -40.5\n"))
	zw.Close()
	name := filepath.Join(t.TempDir(), "job.log.gz")
	if err := os.WriteFile(name, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	want := " SCF Done:  E(RB3LYP) =  -40.5\n"
	if string(got) != want {
		t.Errorf("got %q, wanted %q\n", got, want)
	}
}

func TestReadList(t *testing.T) {
	name := filepath.Join(t.TempDir(), "list.txt")
	os.WriteFile(name, []byte("a.log\n\n  b.log \n"), 0644)
	got, err := ReadList(name)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a.log", "b.log"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
