package teststreaming

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	ffmpegBin = "ffmpeg"
)

type FFmpeg interface {
	Generate(dir string) (string, error)
	ExpectedFrames() int
	FrameRate() float64
}

type testFFmpeg struct {
	arguments      string
	filename       string
	expectedFrames int
	frameRate      float64
}

// Available reports whether fixtures can be generated on this machine.
func Available() bool {
	_, err := exec.LookPath(ffmpegBin)
	return err == nil
}

// Generate encodes the fixture into dir and returns its path.
func (t testFFmpeg) Generate(dir string) (string, error) {
	output := filepath.Join(dir, t.filename)
	cmdExec := exec.Command(ffmpegBin, append(prepareFFmpegParameters(t.arguments), output)...)
	// For debugging:
	// cmdExec.Stdout = os.Stdout
	// cmdExec.Stderr = os.Stderr

	if out, err := cmdExec.CombinedOutput(); err != nil {
		return "", fmt.Errorf("error while running ffmpeg: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return output, nil
}

func (t testFFmpeg) ExpectedFrames() int {
	return t.expectedFrames
}

func (t testFFmpeg) FrameRate() float64 {
	return t.frameRate
}

func prepareFFmpegParameters(cmd string) []string {
	result := []string{}

	for _, item := range strings.Split(cmd, " ") {
		item = strings.ReplaceAll(item, "\\", "")
		item = strings.ReplaceAll(item, "\n", "")
		item = strings.ReplaceAll(item, "\t", "")
		item = strings.ReplaceAll(item, " ", "")
		if item != "" {
			result = append(result, item)
		}
	}

	return result
}
