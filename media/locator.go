package media

import (
	"log"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// legacySizeSuffixes is the closed vocabulary of resolution suffixes the
// historical upload code appended to filenames, ordered by likely size.
// Any change to legacy naming conventions requires a matching update here;
// the list is deliberately a table, not a parser.
var legacySizeSuffixes = []string{
	"",
	"-1920x1920",
	"-1024x1024",
	"-800x800",
	"-400x400",
	"-300x300",
	"-150x150",
}

// sizeSuffixPattern splits "name-800x800" into base name and suffix.
var sizeSuffixPattern = regexp.MustCompile(`^(.+)-(\d{1,5})x(\d{1,5})$`)

// Locator finds the best surviving source file for an image referenced only
// by a historical, inconsistently-suffixed URL. The search is read-only and
// best-effort: a miss is a normal outcome, not an error.
type Locator struct {
	searchDirs    []string // candidate directories, absolute paths
	stripPrefixes []string // known legacy URL prefixes, e.g. "/uploads"
}

func NewLocator(searchDirs, stripPrefixes []string) *Locator {
	return &Locator{searchDirs: searchDirs, stripPrefixes: stripPrefixes}
}

// Locate resolves a legacy reference to an absolute file path. The bool is
// false when nothing survives; callers must treat that as "image
// unrecoverable", not as a transient failure.
func (l *Locator) Locate(ref string) (string, bool) {
	relatives := l.normalize(ref)
	if len(relatives) == 0 {
		return "", false
	}

	// direct hits first: the recorded path may simply still exist
	for _, rel := range relatives {
		for _, dir := range l.searchDirs {
			candidate := filepath.Join(dir, filepath.FromSlash(rel))
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}

	filename := filepath.Base(filepath.FromSlash(relatives[0]))
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	match := sizeSuffixPattern.FindStringSubmatch(stem)
	if match == nil {
		// no recognisable suffix shape: same-name search across the
		// candidate directories and stop
		return l.largestExisting([]string{filename})
	}

	baseName := match[1]
	names := make([]string, 0, len(legacySizeSuffixes))
	for _, suffix := range legacySizeSuffixes {
		names = append(names, baseName+suffix+ext)
	}

	// recorded dimensions are not trusted for legacy files; byte size on
	// disk is the proxy for resolution
	return l.largestExisting(names)
}

// normalize produces the relative candidate paths tried against each search
// directory: the reference without scheme/host, without a leading slash,
// and with each known legacy prefix stripped.
func (l *Locator) normalize(ref string) []string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}

	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		ref = u.Path
	}

	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = strings.TrimLeft(p, "/")
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	rooted := "/" + strings.TrimLeft(ref, "/")
	add(rooted)
	for _, prefix := range l.stripPrefixes {
		prefix = "/" + strings.Trim(prefix, "/")
		if strings.HasPrefix(rooted, prefix+"/") {
			add(strings.TrimPrefix(rooted, prefix))
		}
	}
	return out
}

// largestExisting stats every name in every search directory and returns
// the existing file with the largest byte size.
func (l *Locator) largestExisting(names []string) (string, bool) {
	var bestPath string
	var bestSize int64 = -1

	for _, dir := range l.searchDirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			if info.Size() > bestSize {
				bestSize = info.Size()
				bestPath = candidate
			}
		}
	}

	if bestPath == "" {
		return "", false
	}
	log.Printf("media.locator: Resolved legacy reference to %s (%d bytes)", bestPath, bestSize)
	return bestPath, true
}
