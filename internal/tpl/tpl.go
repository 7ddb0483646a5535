// Package tpl fills text templates whose placeholders name the keys of
// a string map, e.g. {{.job_name}}. A placeholder without a value is an
// error rather than an empty string.
package tpl

import (
	"os"
	"strings"
	"text/template"

	"bwestbro.com/gausswrangler/internal/status"
)

// ReadFile returns the contents of the template file filename
func ReadFile(filename string) (string, error) {
	byts, err := os.ReadFile(filename)
	if err != nil {
		return "", status.Errorf(status.IO, "Could not read template %s", filename)
	}
	return string(byts), nil
}

// Fill substitutes values into text. name identifies the template in
// error messages.
func Fill(name, text string, values map[string]string) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", status.Errorf(status.Data,
			"Could not parse template %s: %v", name, err)
	}
	var buf strings.Builder
	if err := t.Execute(&buf, values); err != nil {
		return "", status.Errorf(status.Data,
			"Could not fill template %s: %v", name, err)
	}
	return buf.String(), nil
}

// FillSave fills text with values and writes the result to filename
// with permissions perm
func FillSave(name, text string, values map[string]string, filename string,
	perm os.FileMode) error {
	filled, err := Fill(name, text, values)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(filled), perm); err != nil {
		return status.Wrap(status.IO, err)
	}
	// WriteFile leaves the mode of an existing file alone
	return status.Wrap(status.IO, os.Chmod(filename, perm))
}
