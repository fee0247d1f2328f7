// Package encoder drives a local ffmpeg binary to stitch downloaded images
// and a narration track into a single MP4. The encoder owns a scoped
// workspace directory; every file a job writes is removed before the next
// job runs, on success and failure alike.
package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"reelserver/internal/reel"
)

const (
	audioFileName    = "audio.mp3"
	manifestFileName = "filelist.txt"
	outputFileName   = "output.mp4"
)

// runner executes the encode command and returns captured stderr output.
// Tests substitute it to avoid spawning a real process.
type runner func(ctx context.Context, bin string, args []string, dir string) (string, error)

// Job is one encode request: the images that actually downloaded, keyed by
// their original indices, plus the narration audio.
type Job struct {
	Images []reel.Image
	Audio  []byte
}

// Encoder wraps one ffmpeg workspace. Jobs are serialized through it; use
// separate Encoder values for concurrent encodes.
type Encoder struct {
	bin    string
	run    runner
	logger zerolog.Logger

	mu  sync.Mutex
	dir string
}

// New constructs an Encoder around the given ffmpeg binary ("ffmpeg" when
// empty).
func New(bin string, logger zerolog.Logger) *Encoder {
	if strings.TrimSpace(bin) == "" {
		bin = "ffmpeg"
	}
	return &Encoder{bin: bin, run: execRunner, logger: logger}
}

// EncodeSlideshow writes the job inputs into the workspace, runs the fixed
// concat+mux command (1 image per second, H.264/yuv420p video, AAC audio,
// truncated to the shortest stream, negative timestamps normalized), and
// returns the MP4 bytes. All job files are deleted before returning.
func (e *Encoder) EncodeSlideshow(ctx context.Context, job Job) ([]byte, error) {
	if len(job.Images) == 0 {
		return nil, reel.ErrNoAssets
	}
	if len(job.Audio) == 0 {
		return nil, fmt.Errorf("%w: no audio track", reel.ErrEncode)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dir, err := e.workspace()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reel.ErrEncode, err)
	}

	var written []string
	defer func() {
		e.removeFiles(dir, append(written, outputFileName))
	}()

	var manifest bytes.Buffer
	for _, img := range job.Images {
		name := fmt.Sprintf("image%d.jpeg", img.Index)
		if err := e.writeInput(dir, name, img.Data); err != nil {
			return nil, fmt.Errorf("%w: %v", reel.ErrEncode, err)
		}
		written = append(written, name)
		fmt.Fprintf(&manifest, "file '%s'\n", name)
	}
	if err := e.writeInput(dir, audioFileName, job.Audio); err != nil {
		return nil, fmt.Errorf("%w: %v", reel.ErrEncode, err)
	}
	written = append(written, audioFileName)
	if err := e.writeInput(dir, manifestFileName, manifest.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: %v", reel.ErrEncode, err)
	}
	written = append(written, manifestFileName)

	args := []string{
		"-f", "concat",
		"-r", "1",
		"-safe", "0",
		"-i", manifestFileName,
		"-i", audioFileName,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		"-avoid_negative_ts", "make_zero",
		"-y",
		outputFileName,
	}
	stderr, err := e.run(ctx, e.bin, args, dir)
	if err != nil {
		if detail := strings.TrimSpace(stderr); detail != "" {
			return nil, fmt.Errorf("%w: %v: %s", reel.ErrEncode, err, lastLine(detail))
		}
		return nil, fmt.Errorf("%w: %v", reel.ErrEncode, err)
	}

	data, err := e.readOutput(dir, outputFileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reel.ErrEncode, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty output", reel.ErrEncode)
	}
	return data, nil
}

// Close removes the workspace directory.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dir == "" {
		return nil
	}
	dir := e.dir
	e.dir = ""
	return os.RemoveAll(dir)
}

// workspace lazily creates the scoped directory, reused across jobs.
func (e *Encoder) workspace() (string, error) {
	if e.dir != "" {
		return e.dir, nil
	}
	dir, err := os.MkdirTemp("", "reel-encode-")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	e.dir = dir
	return dir, nil
}

func (e *Encoder) writeInput(dir, name string, data []byte) error {
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func (e *Encoder) readOutput(dir, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(dir, name))
}

// removeFiles deletes the exact filenames a job wrote. Missing files are
// fine (a failed job may not have produced the output yet).
func (e *Encoder) removeFiles(dir string, names []string) {
	for _, name := range names {
		err := os.Remove(filepath.Join(dir, name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn().Err(err).Str("file", name).Msg("encoder: workspace cleanup failed")
		}
	}
}

func execRunner(ctx context.Context, bin string, args []string, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
