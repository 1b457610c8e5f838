package rename

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metadataJSON = `[
  {"id": 10, "media_type": "InputMessagesFilterMusic", "file": "10.mpga",
   "media": {"kind": "document", "file_name": "Intro.mp3"}},
  {"id": 11, "media_type": "InputMessagesFilterMusic", "file": "11.m4a",
   "media": {"kind": "document", "file_name": "Cafe\u0301 Song.m4a"}},
  {"id": 12, "media": {"document": {"attributes": [
    {"className": "DocumentAttributeAudio"},
    {"className": "DocumentAttributeFilename", "fileName": "legacy track.ogg"}
  ]}}}
]`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "metadata.json", metadataJSON)
	writeFile(t, dir, "10.mpga", "intro")
	writeFile(t, dir, "11.m4a", "cafe")
	writeFile(t, dir, "12.ogg", "legacy")
	writeFile(t, dir, "13.wav", "orphan")
	writeFile(t, dir, "14.jpg", "not audio")
	return dir
}

func TestNewPlan(t *testing.T) {
	dir := setup(t)

	plan, err := NewPlan(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"10.mpga", "11.m4a", "12.ogg", "13.wav"}, plan.Files)
	assert.Equal(t, map[string]int{".mpga": 1, ".m4a": 1, ".ogg": 1, ".wav": 1}, plan.ByFormat)
	assert.Equal(t, 3, plan.Matching())
	assert.Equal(t, "legacy track", plan.Names["12"])
}

func TestNewPlanWithoutMetadata(t *testing.T) {
	_, err := NewPlan(t.TempDir())
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	dir := setup(t)
	out := filepath.Join(t.TempDir(), "renamed")

	plan, err := NewPlan(dir)
	require.NoError(t, err)

	res, err := Apply(plan, out, true)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, 3, res.Renamed)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "13.wav")

	data, err := os.ReadFile(filepath.Join(out, "Intro.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "intro", string(data))

	// Decomposed accents are stored precomposed
	_, err = os.Stat(filepath.Join(out, "Caf\u00e9 Song.m4a"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "legacy track.ogg"))
	assert.NoError(t, err)
}

func TestTargetName(t *testing.T) {
	assert.Equal(t, "Intro.mpga", TargetName("Intro", ".MPGA", false))
	assert.Equal(t, "Intro.mp3", TargetName("Intro", ".mpga", true))
	assert.Equal(t, "Intro.m4a", TargetName("Intro", ".m4a", true))
	assert.Equal(t, "evil.wav", TargetName("../../evil", ".wav", false))
}

func TestWriteLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	res := &Result{
		Total:     2,
		Processed: 2,
		Renamed:   1,
		Failures:  []string{"No matching metadata found for: 13.wav"},
		ByFormat:  map[string]int{".wav": 1, ".mpga": 1},
		OutputDir: "/music",
		MpgaToMP3: true,
	}

	require.NoError(t, WriteLog(res, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, ".mpga: 1 files\n.wav: 1 files\n")
	assert.Contains(t, s, "Successful renames: 1")
	assert.Contains(t, s, "MPGA files were saved with the .mp3 extension")
	assert.Contains(t, s, "- No matching metadata found for: 13.wav")
}
