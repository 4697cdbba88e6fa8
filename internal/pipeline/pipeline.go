// Package pipeline runs the stages in order with pre-flight checks and a
// post-run verification of the expected outputs.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/happipe-cli/internal/console"
	"github.com/KaramelBytes/happipe-cli/internal/utils"
)

// Requirement is a runtime component that must work before any stage runs.
type Requirement struct {
	Name  string
	Check func() error
}

// Stage is one step of the workflow. Output written to w is captured and
// echoed once the stage returns.
type Stage struct {
	Name string
	Run  func(ctx context.Context, w io.Writer) error
}

// OutputGroup is a labeled set of files expected after a successful run.
type OutputGroup struct {
	Name  string
	Paths []string
}

// FileStatus is the verification result for one expected output.
type FileStatus struct {
	Group  string
	Path   string
	Exists bool
	Size   int64
}

// Pipeline is the full workflow definition.
type Pipeline struct {
	Title        string
	Requirements []Requirement
	Inputs       []string
	Stages       []Stage
	Outputs      []OutputGroup

	Out io.Writer
	Log *zap.Logger
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Result summarizes a completed run.
type Result struct {
	Started  time.Time
	Finished time.Time
	Outputs  []FileStatus
	// Complete is false when an expected output is missing.
	Complete bool
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Run executes the environment check, the input check, every stage in order
// and the output verification. It stops at the first failure.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	w := p.Out
	if w == nil {
		w = os.Stdout
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	res := &Result{Started: p.now()}

	header(w, p.Title)
	fmt.Fprintln(w, "Complete Workflow Automation")
	fmt.Fprintf(w, "Started at: %s\n", res.Started.Format(time.DateTime))

	header(w, "CHECKING DEPENDENCIES")
	if err := CheckRequirements(w, p.Requirements); err != nil {
		console.Fail(w, "Dependency check failed. Exiting.")
		return res, err
	}

	header(w, "CHECKING INPUT DATA")
	if err := CheckInputs(w, p.Inputs); err != nil {
		console.Fail(w, "Input data check failed. Exiting.")
		return res, err
	}

	header(w, "EXECUTING WORKFLOW")
	for i, st := range p.Stages {
		if err := ctx.Err(); err != nil {
			return res, &StageError{Stage: st.Name, Err: err}
		}
		fmt.Fprintf(w, "[%d/%d] Running %s...\n", i+1, len(p.Stages), st.Name)
		began := time.Now()
		var buf bytes.Buffer
		err := runStage(ctx, st, &buf)
		if err != nil {
			console.Fail(w, "Error running %s:", st.Name)
			w.Write(buf.Bytes())
			fmt.Fprintln(w, err)
			fmt.Fprintln(w)
			console.Fail(w, "Workflow failed at: %s", st.Name)
			header(w, "WORKFLOW FAILED")
			fmt.Fprintln(w, "Please check the error messages above and fix any issues.")
			log.Error("stage failed", zap.String("stage", st.Name), zap.Error(err))
			return res, &StageError{Stage: st.Name, Err: err}
		}
		w.Write(buf.Bytes())
		console.OK(w, "%s completed successfully", st.Name)
		fmt.Fprintln(w)
		log.Debug("stage finished", zap.String("stage", st.Name), zap.Duration("elapsed", time.Since(began)))
	}

	header(w, "WORKFLOW COMPLETED SUCCESSFULLY")
	header(w, "VERIFYING OUTPUTS")
	res.Outputs, res.Complete = Verify(w, p.Outputs)
	fmt.Fprintln(w)
	if res.Complete {
		console.OK(w, "All expected output files were created")
	} else {
		console.Warn(w, "Some output files may be missing")
		log.Warn("expected outputs missing")
	}

	res.Finished = p.now()
	fmt.Fprintf(w, "\nCompleted at: %s\n", res.Finished.Format(time.DateTime))
	fmt.Fprintf(w, "Total runtime: %.1f seconds\n", res.Finished.Sub(res.Started).Seconds())
	if len(p.Outputs) > 0 {
		fmt.Fprintln(w, "\nYou can now view the results:")
		for _, g := range p.Outputs {
			if len(g.Paths) > 0 {
				fmt.Fprintf(w, "  - %s: %s\n", g.Name, filepath.Dir(g.Paths[0]))
			}
		}
	}
	return res, nil
}

// runStage calls the stage and turns a panic into an error.
func runStage(ctx context.Context, st Stage, w io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return st.Run(ctx, w)
}

// CheckRequirements runs every requirement and reports all failures together.
func CheckRequirements(w io.Writer, reqs []Requirement) error {
	var failed []string
	for _, r := range reqs {
		if err := r.Check(); err != nil {
			console.Fail(w, "%s is NOT available: %v", r.Name, err)
			failed = append(failed, r.Name)
			continue
		}
		console.OK(w, "%s is available", r.Name)
	}
	if len(failed) > 0 {
		return &DependencyError{Failed: failed}
	}
	fmt.Fprintln(w)
	console.OK(w, "All dependencies are available")
	return nil
}

// CheckInputs confirms each input file exists and prints its size.
func CheckInputs(w io.Writer, paths []string) error {
	var missing []string
	for _, p := range paths {
		if size, ok := utils.FileSize(p); ok {
			console.OK(w, "%s exists (%s bytes)", p, groupDigits(size))
			continue
		}
		console.Fail(w, "%s NOT FOUND", p)
		missing = append(missing, p)
	}
	if len(missing) > 0 {
		return &InputError{Missing: missing}
	}
	fmt.Fprintln(w)
	console.OK(w, "All input data files are present")
	return nil
}

// Verify lists every expected output with its size. Missing files are
// reported, never treated as an error.
func Verify(w io.Writer, groups []OutputGroup) ([]FileStatus, bool) {
	var out []FileStatus
	complete := true
	for _, g := range groups {
		fmt.Fprintf(w, "\n%s:\n", g.Name)
		rows := make([][]string, 0, len(g.Paths))
		for _, p := range g.Paths {
			size, ok := utils.FileSize(p)
			st := FileStatus{Group: g.Name, Path: p, Exists: ok, Size: size}
			out = append(out, st)
			if ok {
				rows = append(rows, []string{"✓", p, groupDigits(size)})
				continue
			}
			complete = false
			rows = append(rows, []string{"✗", p, "NOT CREATED"})
		}
		console.Table(w, []string{"", "file", "bytes"}, rows)
	}
	return out, complete
}

// IsDependency reports whether err came from the environment check.
func IsDependency(err error) bool {
	var e *DependencyError
	return errors.As(err, &e)
}

func header(w io.Writer, msg string) {
	fmt.Fprintln(w)
	console.Banner(w, msg)
	fmt.Fprintln(w)
}

// groupDigits renders n with comma thousands separators.
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if n < 0 {
		neg, s = true, s[1:]
	}
	var b bytes.Buffer
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
