package scanner

import (
	"strings"

	"golang.org/x/mod/semver"
)

func canonicalVersion(name string) string {
	v := strings.TrimSpace(name)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// selectVersion picks the directory to load among a provider's version directories.
// Semantic versions beat other names; among other names the lexically greatest wins.
func selectVersion(names []string) string {
	best, bestSemver := "", ""
	for _, name := range names {
		v := canonicalVersion(name)
		switch {
		case best == "":
			best, bestSemver = name, v
		case v != "" && bestSemver == "":
			best, bestSemver = name, v
		case v != "" && bestSemver != "":
			if c := semver.Compare(v, bestSemver); c > 0 || (c == 0 && name > best) {
				best, bestSemver = name, v
			}
		case v == "" && bestSemver == "":
			if name > best {
				best = name
			}
		}
	}
	return best
}
