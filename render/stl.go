package render

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/soypat/meshy"
	"github.com/soypat/meshy/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNormalMismatch is returned alongside the triangles read when a stored
// STL normal disagrees with the vertex winding. Many exporters write sloppy
// normals so callers may choose to ignore it.
var ErrNormalMismatch = errors.New("STL normal does not match vertex winding")

const (
	stlHeaderSize = 84 // 80 byte comment and a uint32 facet count
	stlFacetSize  = 50
	// Minimum |cos| between a stored normal and the winding normal.
	stlNormalCos = 0.995
)

// CreateSTL writes the world space faces of meshes to a binary STL file at
// path. Nil meshes are skipped.
func CreateSTL(path string, meshes ...*meshy.Mesh) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	err = WriteSTL(fp, meshes...)
	if cerr := fp.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteSTL writes the world space faces of meshes to w as a single binary
// STL solid. Each facet carries the mesh's face normal.
func WriteSTL(w io.Writer, meshes ...*meshy.Mesh) error {
	count := 0
	for _, m := range meshes {
		if m != nil {
			count += m.NumFaces()
		}
	}
	if count == 0 {
		return errors.New("no faces to write")
	}
	if uint64(count) > math.MaxUint32 {
		return fmt.Errorf("%d faces do not fit in a binary STL", count)
	}
	bw := bufio.NewWriter(w)
	var b [stlHeaderSize]byte
	binary.LittleEndian.PutUint32(b[80:], uint32(count))
	if _, err := bw.Write(b[:]); err != nil {
		return err
	}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		for i := range m.Faces {
			newFacet(m.FaceNormal(i), m.Triangle(i)).put(b[:stlFacetSize])
			if _, err := bw.Write(b[:stlFacetSize]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadSTL reads binary or ASCII STL triangles. If some stored normals do not
// match their triangle the triangles are returned with ErrNormalMismatch.
func ReadSTL(r io.Reader) ([]r3.Triangle, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(512)
	if bytes.HasPrefix(bytes.TrimLeft(head, " \t\r\n"), []byte("solid")) &&
		bytes.Contains(head, []byte("facet")) {
		return readASCIISTL(br)
	}
	return readBinarySTL(br)
}

func readBinarySTL(r io.Reader) ([]r3.Triangle, error) {
	var b [stlHeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, fmt.Errorf("reading STL header: %w", err)
	}
	count := int(binary.LittleEndian.Uint32(b[80:]))
	if count == 0 {
		return nil, errors.New("STL header declares no triangles")
	}
	tris := make([]r3.Triangle, 0, min(count, 1<<20))
	mismatched := 0
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, b[:stlFacetSize]); err != nil {
			return nil, fmt.Errorf("STL triangle %d of %d: %w", i+1, count, err)
		}
		var f facet
		f.get(b[:stlFacetSize])
		switch err := f.check(); {
		case errors.Is(err, ErrNormalMismatch):
			mismatched++
		case err != nil:
			return nil, fmt.Errorf("STL triangle %d of %d: %w", i+1, count, err)
		}
		tris = append(tris, f.triangle())
	}
	if mismatched > 0 {
		return tris, fmt.Errorf("%d triangles: %w", mismatched, ErrNormalMismatch)
	}
	return tris, nil
}

// readASCIISTL parses "solid ... facet normal ... outer loop vertex ...".
// Normals are read but not checked.
func readASCIISTL(r io.Reader) ([]r3.Triangle, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	var (
		tris []r3.Triangle
		word string
		pos  int
	)
	next := func() bool {
		if !sc.Scan() {
			return false
		}
		word = sc.Text()
		pos++
		return true
	}
	expect := func(keywords ...string) error {
		for _, want := range keywords {
			if !next() {
				return fmt.Errorf("ASCII STL: expected %q, got end of input", want)
			}
			if word != want {
				return fmt.Errorf("ASCII STL word %d: expected %q, got %q", pos, want, word)
			}
		}
		return nil
	}
	readVec := func(v *[3]float32) error {
		for k := range v {
			if !next() {
				return errors.New("ASCII STL: unexpected end of input in vector")
			}
			f, err := strconv.ParseFloat(word, 32)
			if err != nil {
				return fmt.Errorf("ASCII STL word %d: %w", pos, err)
			}
			v[k] = float32(f)
		}
		return nil
	}
	if err := expect("solid"); err != nil {
		return nil, err
	}
	// The solid name is optional and may span several words.
	for next() && word != "facet" && word != "endsolid" {
	}
	for word == "facet" {
		var f facet
		if err := expect("normal"); err != nil {
			return nil, err
		}
		if err := readVec(&f[0]); err != nil {
			return nil, err
		}
		if err := expect("outer", "loop"); err != nil {
			return nil, err
		}
		for k := 1; k < 4; k++ {
			if err := expect("vertex"); err != nil {
				return nil, err
			}
			if err := readVec(&f[k]); err != nil {
				return nil, err
			}
		}
		if err := expect("endloop", "endfacet"); err != nil {
			return nil, err
		}
		if !f.finite() {
			return nil, fmt.Errorf("ASCII STL facet %d: inf/NaN", len(tris))
		}
		tris = append(tris, f.triangle())
		next()
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if word != "endsolid" {
		return nil, fmt.Errorf("ASCII STL: expected %q, got %q", "endsolid", word)
	}
	if len(tris) == 0 {
		return nil, errors.New("ASCII STL contains no facets")
	}
	return tris, nil
}

// facet is an STL record: the normal followed by three vertices.
type facet [4][3]float32

func newFacet(n r3.Vec, t r3.Triangle) facet {
	var f facet
	for k, v := range [4]r3.Vec{n, t[0], t[1], t[2]} {
		f[k] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
	}
	return f
}

// put encodes f into b, leaving the attribute byte count zero.
func (f facet) put(b []byte) {
	_ = b[stlFacetSize-1]
	for k, v := range f {
		for j, c := range v {
			binary.LittleEndian.PutUint32(b[12*k+4*j:], math.Float32bits(c))
		}
	}
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (f *facet) get(b []byte) {
	_ = b[stlFacetSize-1]
	for k := range f {
		for j := range f[k] {
			f[k][j] = math.Float32frombits(binary.LittleEndian.Uint32(b[12*k+4*j:]))
		}
	}
}

func (f *facet) finite() bool {
	for _, v := range f {
		for _, c := range v {
			if math32.IsNaN(c) || math32.IsInf(c, 0) {
				return false
			}
		}
	}
	return true
}

func (f *facet) triangle() r3.Triangle {
	var t r3.Triangle
	for k := range t {
		v := f[k+1]
		t[k] = r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
	}
	return t
}

// check validates a binary facet. A zero normal asks the reader to compute
// it and always matches.
func (f *facet) check() error {
	if !f.finite() {
		return errors.New("inf/NaN in STL facet")
	}
	if f[1] == f[2] || f[2] == f[3] || f[3] == f[1] {
		return errors.New("degenerate STL facet")
	}
	n := r3.Vec{X: float64(f[0][0]), Y: float64(f[0][1]), Z: float64(f[0][2])}
	if n == (r3.Vec{}) {
		return nil
	}
	cos := r3.Dot(d3.Normal(f.triangle()), n) / r3.Norm(n)
	if math.Abs(cos) < stlNormalCos {
		return ErrNormalMismatch
	}
	return nil
}
