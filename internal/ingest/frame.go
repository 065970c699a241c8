// Package ingest decodes pose frames sent by capture clients or recorded to
// JSON Lines files.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/claude/movecoach/internal/pose"
)

var (
	// ErrUnknownJoint is returned for joint names outside the pose model.
	ErrUnknownJoint = errors.New("unknown joint")
	// ErrNoFrames is returned for a batch without frames.
	ErrNoFrames = errors.New("no frames")
)

// Frame is the wire form of one observation: t is seconds since the start
// of the recording.
type Frame struct {
	T      float64                  `json:"t"`
	Joints map[string]pose.Keypoint `json:"joints"`
}

// Offset returns t as a duration.
func (f Frame) Offset() time.Duration {
	return time.Duration(f.T * float64(time.Second))
}

// Observation converts the frame, timestamping it relative to base.
func (f Frame) Observation(base time.Time) (pose.Observation, error) {
	if f.T < 0 || math.IsNaN(f.T) || math.IsInf(f.T, 0) {
		return pose.Observation{}, fmt.Errorf("invalid frame time %v", f.T)
	}
	obs := pose.Observation{
		Time:   base.Add(f.Offset()),
		Joints: make(map[pose.Joint]pose.Keypoint, len(f.Joints)),
	}
	for name, kp := range f.Joints {
		j, err := pose.ParseJoint(name)
		if err != nil {
			return pose.Observation{}, fmt.Errorf("%w: %q", ErrUnknownJoint, name)
		}
		obs.Joints[j] = kp
	}
	return obs, nil
}

// batch is the request body form carrying several frames.
type batch struct {
	Frames []Frame `json:"frames"`
}

// DecodeFrames accepts either a single frame object or {"frames":[...]}.
func DecodeFrames(body []byte) ([]Frame, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding frames: %w", err)
	}
	if _, ok := envelope["frames"]; ok {
		var b batch
		if err := json.Unmarshal(body, &b); err != nil {
			return nil, fmt.Errorf("decoding frame batch: %w", err)
		}
		if len(b.Frames) == 0 {
			return nil, ErrNoFrames
		}
		return b.Frames, nil
	}
	var f Frame
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	return []Frame{f}, nil
}

// maxLine bounds a single JSON Lines record.
const maxLine = 1 << 20

// ReadLines calls fn for every frame in a JSON Lines stream. Blank lines and
// lines starting with '#' are skipped. A malformed line stops the read with
// its line number.
func ReadLines(r io.Reader, fn func(line int, f Frame) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		var f Frame
		if err := json.Unmarshal(line, &f); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if err := fn(n, f); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading frames: %w", err)
	}
	return nil
}
