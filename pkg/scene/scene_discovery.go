package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/df07/go-animated-scenes/pkg/renderer"
)

// ErrUnknownScene is returned by New for an unregistered scene id
var ErrUnknownScene = errors.New("unknown scene")

// SceneInfo describes a registered scene
type SceneInfo struct {
	ID          string   `json:"id"`          // Unique identifier
	DisplayName string   `json:"displayName"` // UI display name
	Description string   `json:"description"`
	Group       string   `json:"group"`            // Grouping category
	Assets      []string `json:"assets,omitempty"` // Default asset URLs
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// Constructor builds a scene
type Constructor func(host renderer.Host, width, height int, opts Options) (Scene, error)

type entry struct {
	info SceneInfo
	ctor Constructor
}

var builtins = []entry{
	{
		info: SceneInfo{
			ID:          "iceberg",
			Description: "Iceberg model bobbing on animated water under a movable directional light",
			Group:       "Animated Scenes",
			Assets:      []string{IcebergModelURL, WaterNormalsURL},
		},
		ctor: func(host renderer.Host, w, h int, opts Options) (Scene, error) {
			return NewIceberg(host, w, h, opts)
		},
	},
	{
		info: SceneInfo{
			ID:          "solar-system",
			Description: "Sun, earth and moon spinning on nested orbit pivots",
			Group:       "Animated Scenes",
		},
		ctor: func(host renderer.Host, w, h int, opts Options) (Scene, error) {
			return NewSolarSystem(host, w, h, opts)
		},
	},
}

// Builtins returns the registered scenes in registration order
func Builtins() []SceneInfo {
	infos := make([]SceneInfo, len(builtins))
	for i, e := range builtins {
		infos[i] = e.info
		infos[i].DisplayName = titleCase(e.info.ID)
	}
	return infos
}

// New constructs the scene registered under id
func New(id string, host renderer.Host, width, height int, opts Options) (Scene, error) {
	for _, e := range builtins {
		if e.info.ID == id {
			return e.ctor(host, width, height, opts)
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownScene, id)
}

// ListAllScenes returns the registered scenes grouped by category, groups
// sorted by name
func ListAllScenes() ScenesResponse {
	var response ScenesResponse

	groupMap := make(map[string][]SceneInfo)
	for _, info := range Builtins() {
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	var groupNames []string
	for groupName := range groupMap {
		groupNames = append(groupNames, groupName)
	}
	sort.Strings(groupNames)

	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}
	return response
}

// titleCase converts an id to title case
// e.g., "solar-system" -> "Solar System"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
