// Package integration provides embedded shell integration snippets.
package integration

import (
	"bytes"
	_ "embed"
	"os/exec"
	"path/filepath"
	"text/template"
)

// ZshFzf contains the zsh shell integration script with fzf support.
//
//go:embed zsh-fzf.sh
var ZshFzf string

//nolint:gochecknoglobals // Replaced in tests
var lookPath = exec.LookPath

// Render renders the integration script, substituting the zsh path and the
// dirdive binary the script should call.
func Render(binary string) (string, error) {
	// First use LookPath to find zsh binary
	zsh, err := lookPath("zsh")
	if err != nil {
		return "", err
	}

	if binary == "" {
		binary = "dirdive"
	}

	tmpl, err := template.New("zsh-fzf").Parse(ZshFzf)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any{
		"ZSH":    filepath.ToSlash(zsh),
		"Binary": filepath.ToSlash(binary),
	}); err != nil {
		return "", err
	}

	return buf.String(), nil
}
