package ffmpeg

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// AudioTrack is the canonical per-track record produced by analysis.
// Language is normalized ISO 639-1, empty when unknown.
type AudioTrack struct {
	Index         int
	Language      string
	LanguageRaw   string
	Codec         string
	Channels      int
	ChannelLayout string
	Bitrate       int64
	IsDefault     bool
	IsForced      bool
	Title         string
}

// MediaInfo is the analysis result for one file. Warning is set when the
// probe failed and the result degraded to extension-based guessing.
type MediaInfo struct {
	Container   string
	DurationMS  int64
	AudioTracks []AudioTrack
	Warning     string
}

// ──────────────────── ffprobe JSON shapes ────────────────────

type probeResult struct {
	Format  formatInfo   `json:"format"`
	Streams []streamInfo `json:"streams"`
}

type formatInfo struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type streamInfo struct {
	CodecType     string            `json:"codec_type"`
	CodecName     string            `json:"codec_name"`
	Channels      int               `json:"channels"`
	ChannelLayout string            `json:"channel_layout"`
	BitRate       string            `json:"bit_rate"`
	Disposition   dispositionInfo   `json:"disposition"`
	Tags          map[string]string `json:"tags"`
}

type dispositionInfo struct {
	Default int `json:"default"`
	Forced  int `json:"forced"`
}

// containerByExt backs the degraded path when ffprobe is unusable.
var containerByExt = map[string]string{
	".mkv":  "Matroska",
	".mp4":  "MPEG-4",
	".m4v":  "MPEG-4",
	".avi":  "AVI",
	".mov":  "QuickTime",
	".wmv":  "Windows Media",
	".webm": "WebM",
}

// Analyzer extracts audio metadata via ffprobe, degrading to extension
// guessing when the binary is missing or the file is unreadable. Analyze
// never fails: a scan must not abort on one bad file.
type Analyzer struct {
	ffprobePath string
}

func NewAnalyzer(ffprobePath string) *Analyzer {
	return &Analyzer{ffprobePath: ffprobePath}
}

func (a *Analyzer) Analyze(filePath string) *MediaInfo {
	result, err := a.probe(filePath)
	if err != nil {
		return a.fallback(filePath, err)
	}

	info := &MediaInfo{
		Container: normalizeContainer(result.Format.FormatName),
	}
	if d, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil {
		info.DurationMS = int64(d * 1000)
	}

	index := 0
	for _, s := range result.Streams {
		if s.CodecType != "audio" {
			continue
		}

		raw := s.Tags["language"]
		title := s.Tags["title"]
		lang := NormalizeLanguage(raw)
		if lang == "" && title != "" {
			lang = LanguageFromTitle(title)
		}

		var bitrate int64
		if s.BitRate != "" {
			bitrate, _ = strconv.ParseInt(s.BitRate, 10, 64)
		}

		info.AudioTracks = append(info.AudioTracks, AudioTrack{
			Index:         index,
			Language:      lang,
			LanguageRaw:   raw,
			Codec:         s.CodecName,
			Channels:      s.Channels,
			ChannelLayout: ChannelLayout(s.Channels, s.ChannelLayout),
			Bitrate:       bitrate,
			IsDefault:     s.Disposition.Default == 1,
			IsForced:      s.Disposition.Forced == 1,
			Title:         title,
		})
		index++
	}

	return info
}

func (a *Analyzer) probe(filePath string) (*probeResult, error) {
	cmd := exec.Command(a.ffprobePath, "-v", "quiet", "-print_format", "json",
		"-show_format", "-show_streams", filePath)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &result, nil
}

func (a *Analyzer) fallback(filePath string, cause error) *MediaInfo {
	ext := strings.ToLower(filepath.Ext(filePath))
	return &MediaInfo{
		Container: containerByExt[ext],
		Warning:   fmt.Sprintf("audio analysis skipped: %v", cause),
	}
}

// normalizeContainer picks a display name from ffprobe's comma-separated
// format_name list.
func normalizeContainer(formatName string) string {
	first := formatName
	if i := strings.IndexByte(formatName, ','); i >= 0 {
		first = formatName[:i]
	}
	switch first {
	case "matroska":
		return "Matroska"
	case "mov":
		return "MPEG-4"
	case "avi":
		return "AVI"
	case "asf":
		return "Windows Media"
	case "webm":
		return "WebM"
	case "":
		return ""
	}
	return first
}
