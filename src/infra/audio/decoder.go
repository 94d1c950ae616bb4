package audio

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// Decode opens an audio file and returns a stereo stream together with its format.
// mp3, flac and wav are decoded natively; m4a and alac go through ffmpeg at
// fallbackRate.
func Decode(ctx context.Context, path string, fallbackRate beep.SampleRate) (beep.StreamCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".flac", ".wav":
		f, err := os.Open(path)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("failed to open %s: %w", path, err)
		}
		var (
			stream beep.StreamSeekCloser
			format beep.Format
		)
		switch ext {
		case ".mp3":
			stream, format, err = mp3.Decode(f)
		case ".flac":
			stream, format, err = flac.Decode(f)
		default:
			stream, format, err = wav.Decode(f)
		}
		if err != nil {
			f.Close()
			return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return stream, format, nil
	case ".m4a", ".alac":
		return decodeFFmpeg(ctx, path, fallbackRate)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", ext)
	}
}

// pcmStream reads interleaved s16le stereo from an ffmpeg process.
type pcmStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	r      *bufio.Reader
	err    error
	frame  [4]byte
}

func decodeFFmpeg(ctx context.Context, path string, rate beep.SampleRate) (beep.StreamCloser, beep.Format, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprint(int(rate)),
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("ffmpeg pipe %s: %w", path, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, beep.Format{}, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	slog.Debug("Decoding through ffmpeg", "path", path, "rate", int(rate))

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	return &pcmStream{cmd: cmd, stdout: stdout, r: bufio.NewReaderSize(stdout, 64*1024)}, format, nil
}

func (p *pcmStream) Stream(samples [][2]float64) (n int, ok bool) {
	if p.err != nil {
		return 0, false
	}
	for i := range samples {
		if _, err := io.ReadFull(p.r, p.frame[:]); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				p.err = err
			} else {
				p.err = io.EOF
			}
			return n, n > 0
		}
		left := int16(binary.LittleEndian.Uint16(p.frame[0:2]))
		right := int16(binary.LittleEndian.Uint16(p.frame[2:4]))
		samples[i][0] = float64(left) / 32768
		samples[i][1] = float64(right) / 32768
		n++
	}
	return n, true
}

func (p *pcmStream) Err() error {
	if errors.Is(p.err, io.EOF) {
		return nil
	}
	return p.err
}

// Close stops ffmpeg if it is still running.
func (p *pcmStream) Close() error {
	p.stdout.Close()
	if p.cmd.ProcessState == nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd.Wait()
	return nil
}
