package ffmpeg

import (
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Remuxer rewrites the default-audio-track flag in place. Only MKV
// containers are supported; everything else is a silent no-op.
type Remuxer struct {
	mkvpropeditPath string
}

func NewRemuxer(mkvpropeditPath string) *Remuxer {
	return &Remuxer{mkvpropeditPath: mkvpropeditPath}
}

// TrackIndexForLanguage returns the first track index carrying the given
// normalized language, or -1.
func TrackIndexForLanguage(tracks []AudioTrack, language string) int {
	want := strings.ToLower(strings.TrimSpace(language))
	for _, t := range tracks {
		if strings.ToLower(t.Language) == want {
			return t.Index
		}
	}
	return -1
}

// SetDefaultTrack flags the given audio track index as default and clears
// the flag on every other track. Returns false instead of an error on any
// failure; the caller treats auto-fix as best effort.
func (r *Remuxer) SetDefaultTrack(filePath string, tracks []AudioTrack, trackIndex int) bool {
	if filepath.Ext(strings.ToLower(filePath)) != ".mkv" {
		return false
	}
	if _, err := exec.LookPath(r.mkvpropeditPath); err != nil {
		return false
	}

	indexes := make([]int, 0, len(tracks))
	valid := false
	for _, t := range tracks {
		indexes = append(indexes, t.Index)
		if t.Index == trackIndex {
			valid = true
		}
	}
	if !valid {
		return false
	}
	sort.Ints(indexes)

	// mkvpropedit numbers audio tracks from 1
	args := []string{filePath}
	for _, idx := range indexes {
		args = append(args, "--edit", fmt.Sprintf("track:a%d", idx+1), "--set", "flag-default=0")
	}
	args = append(args, "--edit", fmt.Sprintf("track:a%d", trackIndex+1), "--set", "flag-default=1")

	if output, err := exec.Command(r.mkvpropeditPath, args...).CombinedOutput(); err != nil {
		log.Printf("mkvpropedit failed for %s: %v (%s)", filePath, err, strings.TrimSpace(string(output)))
		return false
	}
	return true
}

// SetDefaultTrackByLanguage flags the first track in the given language as
// default.
func (r *Remuxer) SetDefaultTrackByLanguage(filePath string, tracks []AudioTrack, language string) bool {
	idx := TrackIndexForLanguage(tracks, language)
	if idx < 0 {
		return false
	}
	return r.SetDefaultTrack(filePath, tracks, idx)
}
