// Package chords defines the canonical chord domain: normalization of raw
// recognizer labels into short chord names and the playable-shape types
// shared by position resolution and diagram rendering.
package chords

import "strings"

// qualitySuffixes maps recognizer quality labels to canonical name suffixes.
// A quality missing from this table degrades to the bare root rather than
// erroring so unusual vocabularies still produce usable captions.
var qualitySuffixes = map[string]string{
	"maj":  "",
	"min":  "m",
	"7":    "7",
	"maj7": "maj7",
	"min7": "m7",
	"sus2": "sus2",
	"sus4": "sus4",
	"dim":  "dim",
	"aug":  "aug",
}

// Normalize maps a raw recognizer label of the form "Root:Quality" to the
// canonical short chord name. The quality defaults to "maj" when omitted.
// Any "/" in the result is replaced with "-" for storage-key safety.
func Normalize(raw string) string {
	root := raw
	quality := "maj"
	if idx := strings.Index(raw, ":"); idx >= 0 {
		root = raw[:idx]
		if q := raw[idx+1:]; q != "" {
			quality = q
		}
	}

	suffix, ok := qualitySuffixes[quality]
	if !ok {
		suffix = ""
	}
	return strings.ReplaceAll(root+suffix, "/", "-")
}

// NormalizeAll normalizes a batch of raw labels and returns the canonical
// names in order plus the distinct set in first-seen order.
func NormalizeAll(raws []string) (names []string, distinct []string) {
	names = make([]string, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		name := Normalize(raw)
		names = append(names, name)
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			distinct = append(distinct, name)
		}
	}
	return names, distinct
}

// Basics is the minimal chord identity derivable from a canonical name alone,
// used when lazily creating a variation with no richer data available.
type Basics struct {
	Root string
	Type string // "major" or "minor"
}

// DeriveBasics parses a canonical chord name against (root)(qualitySuffix?)
// and classifies it. The suffix marks a minor chord when it starts with "m"
// and is not "maj7"; everything else is treated as major.
func DeriveBasics(name string) Basics {
	root := name
	suffix := ""
	if len(name) > 0 {
		end := 1
		if len(name) > 1 && (name[1] == '#' || name[1] == 'b') {
			end = 2
		}
		root = name[:end]
		suffix = name[end:]
	}

	chordType := "major"
	if strings.HasPrefix(suffix, "m") && suffix != "maj7" {
		chordType = "minor"
	}
	return Basics{Root: root, Type: chordType}
}
