package audit

import (
	"strings"

	"github.com/mssola/useragent"
)

// DeviceSummary condenses a raw User-Agent header into a short label for
// audit records, e.g. "Chrome 120.0 / Windows 10 (mobile)". Raw UA strings
// are long and high-cardinality; the summary is what operators actually
// read.
func DeviceSummary(rawUA string) string {
	if rawUA == "" {
		return ""
	}

	ua := useragent.New(rawUA)
	if ua.Bot() {
		return "bot"
	}

	name, version := ua.Browser()
	parts := make([]string, 0, 2)
	if name != "" {
		if version != "" {
			// Major.minor is enough to identify the client.
			if idx := strings.Index(version, "."); idx > 0 {
				if second := strings.Index(version[idx+1:], "."); second > 0 {
					version = version[:idx+1+second]
				}
			}
			name += " " + version
		}
		parts = append(parts, name)
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, os)
	}

	summary := strings.Join(parts, " / ")
	if summary == "" {
		return "unknown"
	}
	if ua.Mobile() {
		summary += " (mobile)"
	}
	return summary
}
