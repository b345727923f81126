package services

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var nonFileChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// SingleFileName is ScheduleE_<name>_<year>.pdf with the name reduced to
// letters, digits and underscores.
func SingleFileName(propertyName string, year int) string {
	name := strings.Trim(nonFileChars.ReplaceAllString(propertyName, "_"), "_")
	if name == "" {
		name = "Property"
	}
	return fmt.Sprintf("ScheduleE_%s_%d.pdf", name, year)
}

func BatchFileName(year int) string {
	return fmt.Sprintf("ScheduleE_AllProperties_%d.zip", year)
}

// nameSet hands out unique file names, suffixing repeats with _2, _3, ...
type nameSet map[string]struct{}

func newNameSet() nameSet { return make(nameSet) }

func (s nameSet) unique(name string) string {
	if _, taken := s[name]; !taken {
		s[name] = struct{}{}
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if _, taken := s[candidate]; !taken {
			s[candidate] = struct{}{}
			return candidate
		}
	}
}
