package textgen

import (
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	backgroundWidth  = 160
	backgroundHeight = 90
)

// defaultGradients holds the top and bottom colors of generated backgrounds.
var defaultGradients = map[string][2]string{
	Idle:       {"#141e3c", "#3c1e50"},
	Transition: {"#000000", "#1c1c24"},
}

// DefaultBackgroundFilenames returns the image file of each screen.
func DefaultBackgroundFilenames() map[string]string {
	return map[string]string{
		Idle:       "idle.png",
		Transition: "transition.png",
	}
}

// Backgrounds resolves the background image of each screen: the file from the
// custom directory when it exists, else a plain image generated in tempDir.
type Backgrounds struct {
	fs        afero.Fs
	directory string
	filenames map[string]string
	tempDir   string
	log       logrus.FieldLogger

	paths map[string]string
}

func NewBackgrounds(fsys afero.Fs, directory string, filenames map[string]string, tempDir string, log logrus.FieldLogger) *Backgrounds {
	if filenames == nil {
		filenames = DefaultBackgroundFilenames()
	}
	return &Backgrounds{
		fs:        fsys,
		directory: directory,
		filenames: filenames,
		tempDir:   tempDir,
		log:       log.WithField("component", "backgrounds"),
		paths:     make(map[string]string),
	}
}

// Load resolves every background.
func (b *Backgrounds) Load() error {
	for name, file := range b.filenames {
		if b.directory != "" {
			path := filepath.Join(b.directory, file)
			ok, err := afero.Exists(b.fs, path)
			if err != nil {
				return fmt.Errorf("check %s: %w", path, err)
			}
			if ok {
				b.log.Debugf("Using custom %s background '%s'", name, path)
				b.paths[name] = path
				continue
			}
		}

		path := filepath.Join(b.tempDir, name+".png")
		if err := b.generate(name, path); err != nil {
			return err
		}
		b.log.Debugf("Using default %s background", name)
		b.paths[name] = path
	}
	return nil
}

// Path returns the resolved background of a screen, empty if unknown.
func (b *Backgrounds) Path(name string) string {
	return b.paths[name]
}

func (b *Backgrounds) generate(name, path string) error {
	gradient, ok := defaultGradients[name]
	if !ok {
		gradient = defaultGradients[Transition]
	}
	top, err := colorful.Hex(gradient[0])
	if err != nil {
		return fmt.Errorf("%s background color: %w", name, err)
	}
	bottom, err := colorful.Hex(gradient[1])
	if err != nil {
		return fmt.Errorf("%s background color: %w", name, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, backgroundWidth, backgroundHeight))
	for y := 0; y < backgroundHeight; y++ {
		row := top.BlendLab(bottom, float64(y)/float64(backgroundHeight-1)).Clamped()
		for x := 0; x < backgroundWidth; x++ {
			img.Set(x, y, row)
		}
	}

	f, err := b.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s background: %w", name, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s background: %w", name, err)
	}
	return nil
}
