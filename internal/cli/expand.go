package cli

import (
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// expandPath expands environment variables and a leading '~' in path, as a
// shell would inside double quotes. Referencing an unset variable is an error.
func expandPath(path string) (string, error) {
	word, err := syntax.NewParser().Document(strings.NewReader(path))
	if err != nil {
		return "", err
	}

	expanded, err := expand.Document(&expand.Config{
		Env:     expand.ListEnviron(os.Environ()...),
		NoUnset: true,
	}, word)
	if err != nil {
		return "", err
	}

	return homedir.Expand(expanded)
}
