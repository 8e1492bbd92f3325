package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-swept-surface/pkg/core"
	"github.com/df07/go-swept-surface/pkg/model"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// modelReader hands out the non-blank lines of a model file one record at a
// time and remembers the line number for error reporting
type modelReader struct {
	scanner *bufio.Scanner
	line    int
}

func newModelReader(r io.Reader) *modelReader {
	return &modelReader{scanner: bufio.NewScanner(r)}
}

// next returns the fields of the next non-blank line
func (r *modelReader) next(what string) ([]string, error) {
	for r.scanner.Scan() {
		r.line++
		fields := strings.Fields(r.scanner.Text())
		if len(fields) > 0 {
			return fields, nil
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, &core.ParseError{Line: r.line, Msg: "reading " + what, Err: err}
	}
	return nil, &core.ParseError{Line: r.line + 1, Msg: fmt.Sprintf("unexpected end of input, expected %s", what)}
}

// floats reads a record of exactly count numbers
func (r *modelReader) floats(what string, count int) ([]float64, error) {
	fields, err := r.next(what)
	if err != nil {
		return nil, err
	}
	if len(fields) != count {
		return nil, &core.ParseError{Line: r.line, Msg: fmt.Sprintf("%s needs %d values, got %d", what, count, len(fields))}
	}
	values := make([]float64, count)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, &core.ParseError{Line: r.line, Msg: fmt.Sprintf("invalid number %q in %s", f, what), Err: err}
		}
		values[i] = v
	}
	return values, nil
}

// count reads a record holding one positive integer
func (r *modelReader) count(what string) (int, error) {
	fields, err := r.next(what)
	if err != nil {
		return 0, err
	}
	if len(fields) != 1 {
		return 0, &core.ParseError{Line: r.line, Msg: fmt.Sprintf("%s needs 1 value, got %d", what, len(fields))}
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return 0, &core.ParseError{Line: r.line, Msg: fmt.Sprintf("%s must be a positive integer, got %q", what, fields[0]), Err: err}
	}
	return n, nil
}

// ParseModel reads a model in the text layout, validates it and normalizes
// every cross-section. It never returns a partially built model.
func ParseModel(r io.Reader) (*model.Model, error) {
	mr := newModelReader(r)

	fields, err := mr.next("curve type")
	if err != nil {
		return nil, err
	}
	if len(fields) != 1 {
		return nil, &core.ParseError{Line: mr.line, Msg: fmt.Sprintf("curve type needs 1 value, got %d", len(fields))}
	}
	family, err := model.ParseCurveFamily(fields[0])
	if err != nil {
		return nil, err
	}

	n, err := mr.count("keyframe count")
	if err != nil {
		return nil, err
	}
	m, err := mr.count("point count")
	if err != nil {
		return nil, err
	}

	// Grow with the records actually read; the declared counts may be bogus.
	mdl := &model.Model{Family: family}
	for i := 0; i < n; i++ {
		var k model.Keyframe
		for j := 0; j < m; j++ {
			p, err := mr.floats("cross-section point", 2)
			if err != nil {
				return nil, err
			}
			k.CrossSection = append(k.CrossSection, r2.Vec{X: p[0], Y: p[1]})
		}

		scale, err := mr.floats("scale", 1)
		if err != nil {
			return nil, err
		}
		k.Scale = scale[0]

		rot, err := mr.floats("rotation", 4)
		if err != nil {
			return nil, err
		}
		k.Angle = rot[0]
		k.Axis = r3.Vec{X: rot[1], Y: rot[2], Z: rot[3]}

		pos, err := mr.floats("position", 3)
		if err != nil {
			return nil, err
		}
		k.Position = r3.Vec{X: pos[0], Y: pos[1], Z: pos[2]}
		mdl.Keyframes = append(mdl.Keyframes, k)
	}

	if err := mdl.Validate(); err != nil {
		return nil, err
	}
	if err := model.Normalize(mdl); err != nil {
		return nil, err
	}
	return mdl, nil
}

// LoadModel opens and parses a model file
func LoadModel(filename string) (*model.Model, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer file.Close()

	m, err := ParseModel(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

// WriteModel writes m in the text layout with six decimals per number
func WriteModel(w io.Writer, m *model.Model) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n", m.Family)
	fmt.Fprintf(bw, "%d\n", m.N())
	fmt.Fprintf(bw, "%d\n", m.M())
	for _, k := range m.Keyframes {
		for _, p := range k.CrossSection {
			fmt.Fprintf(bw, "%f %f\n", p.X, p.Y)
		}
		fmt.Fprintf(bw, "%f\n", k.Scale)
		fmt.Fprintf(bw, "%f %f %f %f\n", k.Angle, k.Axis.X, k.Axis.Y, k.Axis.Z)
		fmt.Fprintf(bw, "%f %f %f\n", k.Position.X, k.Position.Y, k.Position.Z)
	}
	return bw.Flush()
}

// SaveModel writes m to filename. The data goes to a temporary file in the
// same directory first, so a failed write leaves the old file intact.
func SaveModel(filename string, m *model.Model) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if err := WriteModel(tmp, m); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}

// WriteSample writes an unnormalized sample model of n circular keyframes
// with m points each
func WriteSample(w io.Writer, family model.CurveFamily, n, m int) error {
	sample, err := model.Sample(family, n, m)
	if err != nil {
		return err
	}
	return WriteModel(w, sample)
}

// IsModelError reports whether err came from malformed or invalid model
// content rather than from I/O
func IsModelError(err error) bool {
	var formatErr *core.FormatError
	var parseErr *core.ParseError
	return errors.As(err, &formatErr) || errors.As(err, &parseErr) || errors.Is(err, core.ErrInvalidGeometry)
}
