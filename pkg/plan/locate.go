package plan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/aizine/pkg/errors"
)

// Environment variables and side-channel file used to hand a plan location
// to a composition run started by an orchestrator.
const (
	EnvPlan        = "AIZINE_PLAN"
	EnvConfig      = "AIZINE_CONFIG"
	ConfigFileName = "magazinebot_config.txt"
)

// Locator resolves where the plan for this run lives.
type Locator struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// TempDir defaults to os.TempDir().
	TempDir string
}

// Locate resolves the plan path using the process environment.
func Locate() (string, error) {
	return Locator{}.Locate()
}

// Locate returns the plan path from, in order: the AIZINE_PLAN variable, the
// file named by AIZINE_CONFIG, or magazinebot_config.txt in the temp dir.
// Config files hold the plan path as their only content.
func (l Locator) Locate() (string, error) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if p := strings.TrimSpace(getenv(EnvPlan)); p != "" && p != "null" && p != "undefined" {
		return p, nil
	}

	configPath := getenv(EnvConfig)
	if configPath == "" {
		dir := l.TempDir
		if dir == "" {
			dir = os.TempDir()
		}
		configPath = filepath.Join(dir, ConfigFileName)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodePlanUnresolved, err,
			"%s not set and config file %s not readable", EnvPlan, configPath)
	}
	p := strings.TrimSpace(string(data))
	if p == "" {
		return "", errors.New(errors.ErrCodePlanUnresolved, "config file %s is empty", configPath)
	}
	return p, nil
}
