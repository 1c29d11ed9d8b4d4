// Package topics provides the set of SVT listing topics to crawl.
package topics

import (
	"sort"
	"strings"
)

// Topic identifies one article listing on the SVT API.
type Topic struct {
	// Path is the listing path relative to the API base, e.g. "nyheter/inrikes"
	Path string `mapstructure:"path"`
	// DisplayName is the human-readable name used in summaries. Defaults to
	// the last path segment.
	DisplayName string `mapstructure:"display_name"`
}

// Name returns the short topic name (the last path segment).
func (t Topic) Name() string {
	if i := strings.LastIndex(t.Path, "/"); i >= 0 {
		return t.Path[i+1:]
	}
	return t.Path
}

// Local reports whether the topic is a local news listing.
func (t Topic) Local() bool {
	return strings.Contains(t.Path, "/lokalt/")
}

// Display returns the display name, falling back to the short name.
func (t Topic) Display() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name()
}

// localAreas lists the local news areas with their display names.
var localAreas = map[string]string{
	"blekinge":       "Blekinge",
	"dalarna":        "Dalarna",
	"gavleborg":      "Gävleborg",
	"halland":        "Halland",
	"helsingborg":    "Helsingborg",
	"jamtland":       "Jämtland",
	"jonkoping":      "Jönköping",
	"norrbotten":     "Norrbotten",
	"skane":          "Skåne",
	"smaland":        "Småland",
	"stockholm":      "Stockholm",
	"sodertalje":     "Södertälje",
	"sormland":       "Sörmland",
	"uppsala":        "Uppsala",
	"varmland":       "Värmland",
	"vast":           "Väst",
	"vasterbotten":   "Västerbotten",
	"vasternorrland": "Västernorrland",
	"vastmanland":    "Västmanland",
	"orebro":         "Örebro",
	"ost":            "Öst",
}

// nationalTopics lists the national listings with display-name overrides
// where the path segment is not presentable as-is.
var nationalTopics = []Topic{
	{Path: "nyheter/ekonomi"},
	{Path: "nyheter/granskning", DisplayName: "uppdrag granskning"},
	{Path: "nyheter/inrikes"},
	{Path: "nyheter/svtforum"},
	{Path: "nyheter/nyhetstecken", DisplayName: "nyheter teckenspråk"},
	{Path: "nyheter/vetenskap"},
	{Path: "nyheter/konsument"},
	{Path: "nyheter/utrikes"},
	{Path: "sport"},
	{Path: "vader", DisplayName: "väder"},
	{Path: "kultur"},
}

// Defaults returns the built-in topic list: the national listings followed
// by one local listing per area.
func Defaults() []Topic {
	out := make([]Topic, 0, len(nationalTopics)+len(localAreas))
	out = append(out, nationalTopics...)

	// Deterministic order for the local areas.
	for _, area := range sortedAreas() {
		out = append(out, Topic{
			Path:        "nyheter/lokalt/" + area,
			DisplayName: localAreas[area],
		})
	}
	return out
}

// DisplayNameFor returns the display name for a short topic name, for
// summaries built from stored records where only the name survives.
func DisplayNameFor(name string) string {
	if display, ok := localAreas[name]; ok {
		return display
	}
	for _, t := range nationalTopics {
		if t.Name() == name {
			return t.Display()
		}
	}
	return name
}

// NameFromPath derives the short topic name from an article URL path, e.g.
// "/nyheter/lokalt/skane/nagot-hander" -> "skane". Used when an article is
// fetched outside a listing walk and its topic has to be reconstructed.
func NameFromPath(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch {
	case len(parts) >= 3 && parts[0] == "nyheter" && parts[1] == "lokalt":
		return parts[2]
	case len(parts) >= 2 && parts[0] == "nyheter":
		return parts[1]
	case len(parts) >= 1:
		return parts[0]
	default:
		return ""
	}
}

// IsLocalArea reports whether a short topic name is a local news area.
func IsLocalArea(name string) bool {
	_, ok := localAreas[name]
	return ok
}

func sortedAreas() []string {
	out := make([]string, 0, len(localAreas))
	for area := range localAreas {
		out = append(out, area)
	}
	sort.Strings(out)
	return out
}
