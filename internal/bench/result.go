package bench

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/gofrs/uuid/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result is one JSONL record: the configuration, every pass, and the
// environment it ran in.
type Result struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"ts"`

	Dataset   Dataset `json:"dataset"`
	BatchSize int     `json:"batch_size"`
	Workers   int     `json:"workers"`
	Buffer    int     `json:"buffer"`
	Order     string  `json:"order"`
	Repeat    int     `json:"repeat"`

	Passes   []PassResult `json:"passes"`
	Verified bool         `json:"verified"`

	GoVersion   string `json:"go"`
	GOOS        string `json:"goos"`
	GOARCH      string `json:"goarch"`
	GOMAXPROCS  int    `json:"gomaxprocs"`
	NumCPU      int    `json:"numcpu"`
	VCSRevision string `json:"vcs_revision,omitempty"`
	VCSModified bool   `json:"vcs_modified,omitempty"`
}

// PassResult is the serialized form of a [Pass].
type PassResult struct {
	Pass

	FilesPerSec float64 `json:"files_per_sec"`
	BytesPerSec float64 `json:"bytes_per_sec"`
}

// NewResult stamps a result with a fresh run id and the build environment.
func NewResult() (Result, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Result{}, fmt.Errorf("run id: %w", err)
	}

	res := Result{
		RunID:      id.String(),
		Timestamp:  time.Now(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		NumCPU:     runtime.NumCPU(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		res.GoVersion = bi.GoVersion
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				res.VCSRevision = setting.Value
			case "vcs.modified":
				res.VCSModified = setting.Value == "true"
			}
		}
	}

	return res, nil
}

// AddPass records p.
func (r *Result) AddPass(p Pass) {
	pr := PassResult{Pass: p, FilesPerSec: p.FilesPerSec()}
	if p.Duration > 0 {
		pr.BytesPerSec = float64(p.Digest.Bytes) / p.Duration.Seconds()
	}

	r.Passes = append(r.Passes, pr)
}

// AppendJSONL appends res as one line to the file at path.
func AppendJSONL(path string, res *Result) error {
	outFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	defer func() { _ = outFile.Close() }()

	writer := bufio.NewWriter(outFile)
	enc := json.NewEncoder(writer)
	enc.SetEscapeHTML(false)

	err = enc.Encode(res)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	err = writer.Flush()
	if err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
