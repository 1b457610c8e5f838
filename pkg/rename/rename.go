package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"tgbulkdl/pkg/metadata"
	"tgbulkdl/pkg/storage"
)

// AudioFormats are the extensions considered, in report order
var AudioFormats = []string{".mpga", ".m4a", ".wav", ".aiff", ".mp3", ".ogg"}

// LogFileName is written by WriteLog into the output directory
const LogFileName = "results.log"

// Plan is the set of audio files found in a download directory
type Plan struct {
	InputDir string
	// Files are base names, sorted
	Files    []string
	ByFormat map[string]int
	// Names maps a message id to its original file name without extension
	Names map[string]string
}

// Matching counts files that have a known original name
func (p *Plan) Matching() int {
	n := 0
	for _, f := range p.Files {
		if _, ok := p.Names[stem(f)]; ok {
			n++
		}
	}
	return n
}

// Result summarises an Apply run
type Result struct {
	Total     int
	Processed int
	Renamed   int
	Failures  []string
	ByFormat  map[string]int
	OutputDir string
	MpgaToMP3 bool
}

// NewPlan reads metadata.json in dir and lists its audio files
func NewPlan(dir string) (*Plan, error) {
	names, err := metadata.FilenameMap(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	plan := &Plan{
		InputDir: dir,
		ByFormat: make(map[string]int),
		Names:    names,
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !isAudio(ext) {
			continue
		}
		plan.Files = append(plan.Files, e.Name())
		plan.ByFormat[ext]++
	}
	sort.Strings(plan.Files)
	return plan, nil
}

// TargetName is the restored file name for a download with extension ext
func TargetName(original, ext string, mpgaToMP3 bool) string {
	ext = strings.ToLower(ext)
	if mpgaToMP3 && ext == ".mpga" {
		ext = ".mp3"
	}
	// Keep the name inside the output directory
	name := filepath.Base(filepath.FromSlash(norm.NFC.String(original)))
	return name + ext
}

// Apply copies every planned file with a known name into outputDir
func Apply(plan *Plan, outputDir string, mpgaToMP3 bool) (*Result, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	res := &Result{
		Total:     len(plan.Files),
		ByFormat:  plan.ByFormat,
		OutputDir: outputDir,
		MpgaToMP3: mpgaToMP3,
	}
	for _, file := range plan.Files {
		res.Processed++

		original, ok := plan.Names[stem(file)]
		if !ok {
			res.Failures = append(res.Failures, fmt.Sprintf("No matching metadata found for: %s", file))
			continue
		}

		target := TargetName(original, filepath.Ext(file), mpgaToMP3)
		src := filepath.Join(plan.InputDir, file)
		if err := storage.CopyFile(src, filepath.Join(outputDir, target)); err != nil {
			res.Failures = append(res.Failures, fmt.Sprintf("Failed to process %s: %v", file, err))
			continue
		}
		res.Renamed++
	}
	return res, nil
}

// WriteLog writes a plain text report of res to path
func WriteLog(res *Result, path string) error {
	var b strings.Builder
	b.WriteString("File Processing Results\n")
	b.WriteString("======================\n\n")
	b.WriteString("Files by format:\n")
	for _, ext := range AudioFormats {
		if n := res.ByFormat[ext]; n > 0 {
			fmt.Fprintf(&b, "%s: %d files\n", ext, n)
		}
	}
	fmt.Fprintf(&b, "\nTotal files in directory: %d\n", res.Total)
	fmt.Fprintf(&b, "Files processed: %d\n", res.Processed)
	fmt.Fprintf(&b, "Successful renames: %d\n", res.Renamed)
	fmt.Fprintf(&b, "Output directory: %s\n", res.OutputDir)
	if res.MpgaToMP3 {
		b.WriteString("MPGA files were saved with the .mp3 extension\n")
	}
	b.WriteString("\n")

	if len(res.Failures) > 0 {
		b.WriteString("Failed Operations:\n")
		b.WriteString("=================\n")
		for _, f := range res.Failures {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write log: %w", err)
	}
	return nil
}

func isAudio(ext string) bool {
	for _, f := range AudioFormats {
		if f == ext {
			return true
		}
	}
	return false
}

func stem(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}
