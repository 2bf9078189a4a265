package sshclient

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Platform is the CLI dialect of a device family.
type Platform struct {
	Name          string
	DisablePaging string
	ShowConfig    string
	Exit          string
}

var platforms = map[string]Platform{
	"huawei": {
		Name:          "huawei",
		DisablePaging: "screen-length 0 temporary",
		ShowConfig:    "display current-configuration",
		Exit:          "quit",
	},
	"huawei_vrpv8": {
		Name:          "huawei_vrpv8",
		DisablePaging: "screen-length 0 temporary",
		ShowConfig:    "display current-configuration",
		Exit:          "quit",
	},
}

// LookupPlatform returns the dialect registered under name.
func LookupPlatform(name string) (Platform, error) {
	p, ok := platforms[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Platform{}, ErrUnsupported(name)
	}

	return p, nil
}

// Platforms lists the supported platform names.
func Platforms() []string {
	out := make([]string, 0, len(platforms))
	for name := range platforms {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

func ErrUnsupported(platform string) error {
	return fmt.Errorf("unsupported platform %q (supported: %s)", platform, strings.Join(Platforms(), ", "))
}

// prompt lines look like <HUAWEI>, [HUAWEI] or [~HUAWEI-GigabitEthernet0/0/1], with optional trailing input
var promptRe = regexp.MustCompile(`^[<\[][^\s<>\[\]]+[>\]]`)

// CleanOutput extracts the command response from a raw shell transcript.
//
// Everything up to and including the echoed command line is dropped, as are
// trailing prompt and blank lines.
func CleanOutput(raw, cmd string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")

	if i := strings.Index(s, cmd); i >= 0 {
		nl := strings.IndexByte(s[i:], '\n')
		if nl < 0 {
			return ""
		}

		s = s[i+nl+1:]
	}

	lines := strings.Split(s, "\n")
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last != "" && !promptRe.MatchString(last) {
			break
		}

		lines = lines[:len(lines)-1]
	}

	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}
