// Package version reports the TrackHound build version from version.json,
// looked up next to the executable first so the service can run from any
// working directory.
package version

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

const fallback = "0.0.0-dev"

type Info struct {
	Version string `json:"version"`
}

func Load() Info {
	for _, path := range candidatePaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var info Info
		if err := json.Unmarshal(data, &info); err != nil {
			log.Printf("[version] could not parse %s: %v", path, err)
			break
		}
		if info.Version != "" {
			return info
		}
	}
	return Info{Version: fallback}
}

func candidatePaths() []string {
	paths := []string{"version.json"}
	if exe, err := os.Executable(); err == nil {
		paths = append([]string{filepath.Join(filepath.Dir(exe), "version.json")}, paths...)
	}
	return paths
}
