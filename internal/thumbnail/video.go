// Package thumbnail fills the thumbnail column of published videos with the
// best still image the video host serves.
package thumbnail

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/watch\?.*v=([a-zA-Z0-9_-]{11})`),
	}
	videoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
)

// ExtractVideoID returns the 11 character video id of a watch, short link or
// embed URL.
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	var id string
	switch host := strings.ToLower(u.Hostname()); {
	case strings.HasSuffix(host, "youtube.com"):
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		}
	case host == "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}

	id = strings.Trim(id, "/")
	if !videoIDRe.MatchString(id) {
		return "", false
	}
	return id, true
}
