package android

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Build descriptors recognised at a module level, in lookup order.
var moduleDescriptors = []string{"build.gradle", "build.gradle.kts"}

// Build descriptors recognised at a project root.
var rootDescriptors = []string{"build.gradle", "build.gradle.kts", "settings.gradle", "settings.gradle.kts"}

var (
	applicationPluginPattern = regexp.MustCompile(`com\.android\.application|libs\.plugins\.android\.?[Aa]pplication\b`)
	applicationIDPattern     = regexp.MustCompile(`\bapplicationId\s*=?\s*["']([^"']+)["']`)
	namespacePattern         = regexp.MustCompile(`\bnamespace\s*=?\s*["']([^"']+)["']`)
	productFlavorsPattern    = regexp.MustCompile(`\bproductFlavors\s*\{`)
	kotlinFlavourPattern     = regexp.MustCompile(`\b(?:create|register|maybeCreate|getByName)\s*\(\s*"([^"]+)"\s*\)`)
	groovyFlavourPattern     = regexp.MustCompile(`(?:^|[\s;}])([A-Za-z_][A-Za-z0-9_]*)\s*\{`)
)

// Names inside productFlavors that configure all flavours rather than declaring one.
var flavourBlockKeywords = map[string]bool{"all": true, "configureEach": true, "each": true}

// Descriptor is a parsed Gradle build script.
type Descriptor struct {
	Path   string
	source string
}

// findDescriptor returns the first descriptor among names that exists in dir.
func findDescriptor(dir string, names []string) (string, bool) {
	for _, name := range names {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// ReadDescriptor loads a build script and strips its comments.
func ReadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Descriptor{Path: path, source: stripComments(string(data))}, nil
}

// IsApplication reports whether the script applies the Android application
// plugin, as opposed to the library plugin.
func (d *Descriptor) IsApplication() bool {
	return applicationPluginPattern.MatchString(d.source)
}

// ApplicationID returns the declared applicationId, if any.
func (d *Descriptor) ApplicationID() string {
	return firstGroup(applicationIDPattern, d.source)
}

// Namespace returns the declared namespace, if any.
func (d *Descriptor) Namespace() string {
	return firstGroup(namespacePattern, d.source)
}

// Flavours returns the product flavours declared in the script, sorted and
// without duplicates.
func (d *Descriptor) Flavours() []string {
	seen := map[string]bool{}
	for _, loc := range productFlavorsPattern.FindAllStringIndex(d.source, -1) {
		body := blockBody(d.source, loc[1])
		top := topLevel(body)
		for _, m := range kotlinFlavourPattern.FindAllStringSubmatch(top, -1) {
			seen[m[1]] = true
		}
		for _, m := range groovyFlavourPattern.FindAllStringSubmatch(top, -1) {
			if !flavourBlockKeywords[m[1]] {
				seen[m[1]] = true
			}
		}
	}

	flavours := make([]string, 0, len(seen))
	for f := range seen {
		flavours = append(flavours, f)
	}
	sort.Strings(flavours)
	return flavours
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// blockBody returns the text between the '{' just before start and its
// matching '}'. An unterminated block runs to the end of src.
func blockBody(src string, start int) string {
	depth := 1
	for i := start; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return src[start:i]
			}
		}
	}
	return src[start:]
}

// topLevel drops everything nested inside braces, keeping the braces
// themselves so "dev { ... }" becomes "dev {}".
func topLevel(body string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch c {
		case '{':
			if depth == 0 {
				b.WriteByte(c)
			}
			depth++
		case '}':
			depth--
			if depth == 0 {
				b.WriteByte(c)
			}
		default:
			if depth == 0 {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// stripComments removes // and /* */ comments that are not inside string
// literals. Braces inside strings are blanked so block matching ignores them.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			switch {
			case c == '\\' && i+1 < len(src):
				b.WriteByte(c)
				b.WriteByte(src[i+1])
				i++
			case c == quote:
				quote = 0
				b.WriteByte(c)
			case c == '{' || c == '}':
				b.WriteByte(' ')
			default:
				b.WriteByte(c)
			}
			continue
		}

		switch {
		case c == '"' || c == '\'':
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 3
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
