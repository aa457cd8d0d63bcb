// Package quality ranks the video quality tiers offered on a download page and resolves
// the preferred one to a concrete link.
package quality

import (
	"regexp"
	"strconv"
	"strings"
)

// Tier is a quality label as shown by the site: a pixel height such as "1080", or one of
// the named tiers "HD" and "SD".
type Tier string

const (
	HD Tier = "HD"
	SD Tier = "SD"
)

// Named tiers carry fixed synthetic ranks: HD ranks 2 and SD ranks 1, while numeric tiers
// rank by their pixel height. HD therefore sorts below every numeric tier and SD below HD.
// The same ranks are used for sorting candidates and for matching preferences.
const (
	rankHD = 2
	rankSD = 1
)

var tierPattern = regexp.MustCompile(`(\d+)P|HD|SD`)

// ParseTier extracts the tier from a mirror label such as "Download (1080P - mp4)".
func ParseTier(label string) (Tier, bool) {
	m := tierPattern.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return Tier(m[1]), true
	}
	return Tier(m[0]), true
}

// Normalize turns a user supplied tier ("1080p", "720", "hd") into its canonical form.
func Normalize(s string) (Tier, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case string(HD), string(SD):
		return Tier(s), true
	}

	s = strings.TrimSuffix(s, "P")
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return Tier(strconv.Itoa(n)), true
	}
	return "", false
}

// NormalizeAll normalizes every entry of list, dropping the ones that are not tiers.
func NormalizeAll(list []string) (tiers []Tier, invalid []string) {
	for _, s := range list {
		if t, ok := Normalize(s); ok {
			tiers = append(tiers, t)
		} else {
			invalid = append(invalid, s)
		}
	}
	return tiers, invalid
}

// Rank orders tiers; a higher rank is considered better. Unknown tiers rank 0.
func (t Tier) Rank() int {
	switch t {
	case HD:
		return rankHD
	case SD:
		return rankSD
	}

	n, err := strconv.Atoi(string(t))
	if err != nil {
		return 0
	}
	return n
}

func (t Tier) String() string {
	return string(t)
}
