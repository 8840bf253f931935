package build

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	configSetRe   = regexp.MustCompile(`^(CONFIG_[A-Z0-9_]+)=(.*)$`)
	configUnsetRe = regexp.MustCompile(`^# (CONFIG_[A-Z0-9_]+) is not set$`)
)

// ParseConfig reads a kernel .config file into a symbol map. Symbols
// in the "is not set" form are reported with value "n".
func ParseConfig(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read kernel config %s: %w", path, err)
	}

	options := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if m := configSetRe.FindStringSubmatch(line); m != nil {
			options[m[1]] = m[2]
			continue
		}
		if m := configUnsetRe.FindStringSubmatch(line); m != nil {
			options[m[1]] = "n"
		}
	}
	return options, nil
}

// ApplyOptions rewrites symbols inside a generated .config using pure
// text manipulation rather than shelling out to scripts/config. A
// value of "n" produces kconfig's "is not set" form; anything else is
// written as KEY=VALUE. Symbols absent from the file are appended so
// a following olddefconfig pass can resolve their dependencies.
func ApplyOptions(path string, options map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read kernel config %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	seen := make(map[string]bool, len(options))

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for key, value := range options {
			if strings.HasPrefix(trimmed, key+"=") || trimmed == "# "+key+" is not set" {
				lines[i] = renderOption(key, value)
				seen[key] = true
			}
		}
	}

	for key, value := range options {
		if !seen[key] {
			lines = append(lines, renderOption(key, value))
		}
	}

	out := strings.Join(lines, "\n")
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("cannot write kernel config %s: %w", path, err)
	}
	return nil
}

func renderOption(key, value string) string {
	if value == "n" {
		return fmt.Sprintf("# %s is not set", key)
	}
	return fmt.Sprintf("%s=%s", key, value)
}
