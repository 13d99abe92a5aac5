package scan

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/franz/media-linker/internal/blueprint"
	"github.com/franz/media-linker/internal/util"
)

// VideoExtensions are the recognized primary media file extensions
var VideoExtensions = []string{
	".mkv",
	".mp4",
	".avi",
	".mov",
	".wmv",
	".flv",
	".webm",
	".m4v",
	".mpg",
	".mpeg",
	".ts",
	".m2ts",
	".vob",
	".ogv",
	".rmvb",
}

var videoExtMap = func() map[string]bool {
	m := make(map[string]bool, len(VideoExtensions))
	for _, ext := range VideoExtensions {
		m[ext] = true
	}
	return m
}()

// IsVideoFile checks if a filename has a recognized primary media extension
func IsVideoFile(name string) bool {
	return videoExtMap[strings.ToLower(filepath.Ext(name))]
}

// BaseName strips the extension from a filename. A file without an
// extension groups under its full name.
func BaseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// GroupByBase groups one directory's files by extension-stripped base
// name. Matching is exact; no fuzzy matching. Pure: no filesystem
// access, no logging.
func GroupByBase(files []blueprint.MediaFile) map[string][]blueprint.MediaFile {
	groups := make(map[string][]blueprint.MediaFile)
	for _, f := range files {
		key := BaseName(f.Name)
		groups[key] = append(groups[key], f)
	}
	return groups
}

// SplitGroups turns base-name groups into PrimaryGroups. Group members
// are sorted lexicographically by filename and the first member with a
// recognized video extension becomes the primary; additional video
// candidates in the same group are logged and demoted to sidecars.
//
// Primaries are selected on exact base-name match only. A group that
// has no video file of its own but whose base name is a primary's base
// plus a "-suffix" tail ("Show.S01E01-thumb") attaches to that primary
// as sidecars; the longest matching base wins. Remaining videoless
// groups are dropped. Output order follows the sorted primary base
// names so runs are reproducible.
func SplitGroups(groups map[string][]blueprint.MediaFile) []blueprint.PrimaryGroup {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	primaries := make(map[string]*blueprint.PrimaryGroup)
	var order []string
	for _, key := range keys {
		members := append([]blueprint.MediaFile(nil), groups[key]...)
		sort.Slice(members, func(i, j int) bool {
			return members[i].Name < members[j].Name
		})

		primaryIdx := -1
		for i, m := range members {
			if IsVideoFile(m.Name) {
				if primaryIdx < 0 {
					primaryIdx = i
				} else {
					util.WarnLog("Group %q has multiple video files; keeping %q, demoting %q",
						key, members[primaryIdx].Name, m.Name)
				}
			}
		}
		if primaryIdx < 0 {
			continue
		}

		group := &blueprint.PrimaryGroup{Primary: members[primaryIdx]}
		for i, m := range members {
			if i != primaryIdx {
				group.Sidecars = append(group.Sidecars, m)
			}
		}
		primaries[key] = group
		order = append(order, key)
	}

	// Attach suffix-named sidecar groups to their primary. The linker
	// itself emits such names ("<base>-poster.jpg"), so its output must
	// group back onto the primary when rescanned.
	for _, key := range keys {
		if _, ok := primaries[key]; ok {
			continue
		}
		base := ""
		for candidate := range primaries {
			if strings.HasPrefix(key, candidate+"-") && len(candidate) > len(base) {
				base = candidate
			}
		}
		if base == "" {
			// No primary media file; this cluster produces nothing
			continue
		}
		members := append([]blueprint.MediaFile(nil), groups[key]...)
		sort.Slice(members, func(i, j int) bool {
			return members[i].Name < members[j].Name
		})
		primaries[base].Sidecars = append(primaries[base].Sidecars, members...)
	}

	out := make([]blueprint.PrimaryGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *primaries[key])
	}
	return out
}
