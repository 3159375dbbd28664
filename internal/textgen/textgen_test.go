package textgen

import (
	"image/png"
	"os"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karaoke-player/internal/playlist"
)

func newGenerator(t *testing.T, fsys afero.Fs, directory string, filenames map[string]string) *Generator {
	t.Helper()
	log, _ := test.NewNullLogger()
	return New(fsys, directory, filenames, log)
}

func testEntry() playlist.Entry {
	return playlist.Entry{
		ID: 42,
		Song: playlist.Song{
			Title:   "Zankoku na Tenshi no Te-ze",
			Artists: []playlist.Artist{{Name: "Yoko Takahashi"}, {Name: "Someone"}},
			Works: []playlist.SongWork{{
				Work:           playlist.Work{Title: "Evangelion", WorkType: playlist.WorkType{Name: "Anime", IconName: "tv"}},
				LinkType:       "OP",
				LinkTypeNumber: 1,
			}},
		},
		Owner: playlist.User{Username: "shinji"},
	}
}

func TestGenerator_DefaultTemplates(t *testing.T) {
	g := newGenerator(t, afero.NewMemMapFs(), "", nil)
	require.NoError(t, g.Load())

	text, err := g.Render(Transition, TransitionData{Entry: testEntry()})
	require.NoError(t, err)
	assert.Contains(t, text, "Zankoku na Tenshi no Te-ze")
	assert.Contains(t, text, "Yoko Takahashi, Someone")
	assert.Contains(t, text, "\uf26c Evangelion - Opening 1")
	assert.Contains(t, text, "Requested by shinji")

	text, err = g.Render(Idle, IdleData{Notes: []string{"VLC 3.0.20", "karaoke-player dev"}})
	require.NoError(t, err)
	assert.Contains(t, text, "VLC 3.0.20")
	assert.Contains(t, text, "karaoke-player dev")
	assert.Contains(t, text, "\uf130")
}

func TestGenerator_CustomTemplateTakesPrecedence(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/custom/idle.ass", []byte(`custom {{index .Notes 0}}`), 0o644))

	g := newGenerator(t, fsys, "/custom", nil)
	require.NoError(t, g.Load())

	text, err := g.Render(Idle, IdleData{Notes: []string{"note"}})
	require.NoError(t, err)
	assert.Equal(t, "custom note", text)

	// transition falls back to the embedded default
	text, err = g.Render(Transition, TransitionData{Entry: testEntry()})
	require.NoError(t, err)
	assert.Contains(t, text, "[Script Info]")
}

func TestGenerator_TemplateNotFound(t *testing.T) {
	g := newGenerator(t, afero.NewMemMapFs(), "/custom", map[string]string{Idle: "missing.ass"})

	err := g.Load()

	var notFound *TemplateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, Idle, notFound.Name)
	assert.Equal(t, "missing.ass", notFound.File)
}

func TestGenerator_TransitionTags(t *testing.T) {
	g := newGenerator(t, afero.NewMemMapFs(), "", nil)
	require.NoError(t, g.Load())
	entry := testEntry()
	entry.Song.Tags = []playlist.Tag{{Name: "PV", Color: 0}, {Name: "Live", Color: 120}}

	text, err := g.Render(Transition, TransitionData{Entry: entry})

	require.NoError(t, err)
	assert.Contains(t, text, `{\c&H6D6DF2&}PV {\c&H6DF26D&}Live`)
}

func TestHueColor(t *testing.T) {
	assert.Equal(t, "&H6D6DF2&", hueColor(0))
	assert.Equal(t, "&H6D6DF2&", hueColor(360))
	assert.Equal(t, "&H6DF26D&", hueColor(120))
}

func TestGenerator_Icon(t *testing.T) {
	g := newGenerator(t, afero.NewMemMapFs(), "", nil)
	require.NoError(t, g.Load())

	assert.Equal(t, "\uf001", g.icon("music"))
	assert.Equal(t, " ", g.icon("unknown"))
	assert.Equal(t, "", g.icon(""))
}

func TestGenerator_RenderToFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	g := newGenerator(t, fsys, "", nil)
	require.NoError(t, g.Load())

	require.NoError(t, g.RenderToFile(Idle, IdleData{}, "/tmp/idle.ass"))

	content, err := afero.ReadFile(fsys, "/tmp/idle.ass")
	require.NoError(t, err)
	assert.Contains(t, string(content), "Karaoke")
}

func TestGenerator_RenderUnloaded(t *testing.T) {
	g := newGenerator(t, afero.NewMemMapFs(), "", nil)

	_, err := g.Render(Idle, IdleData{})
	assert.Error(t, err)
}

func TestBackgrounds(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/custom/idle.png", []byte("png"), 0o644))
	require.NoError(t, fsys.MkdirAll("/tmp/work", 0o755))
	log, _ := test.NewNullLogger()

	b := NewBackgrounds(fsys, "/custom", nil, "/tmp/work", log)
	require.NoError(t, b.Load())

	assert.Equal(t, "/custom/idle.png", b.Path(Idle))
	assert.Equal(t, "/tmp/work/transition.png", b.Path(Transition))
	assert.Empty(t, b.Path("other"))

	f, err := fsys.Open(b.Path(Transition))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	red, green, blue, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{red >> 8, green >> 8, blue >> 8})
}

// statErrorFs fails every Stat with a permission error.
type statErrorFs struct {
	afero.Fs
}

func (statErrorFs) Stat(name string) (os.FileInfo, error) {
	return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrPermission}
}

func TestBackgrounds_LookupError(t *testing.T) {
	log, _ := test.NewNullLogger()
	b := NewBackgrounds(statErrorFs{afero.NewMemMapFs()}, "/custom", nil, "/tmp/work", log)

	err := b.Load()

	assert.ErrorIs(t, err, os.ErrPermission)
}
