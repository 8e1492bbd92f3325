package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-swept-surface/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "ascii", "binary_little_endian" or "binary_big_endian"
	Version     string // Usually "1.0"
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty

	HasNormals    bool
	NormalIndices [3]int // Indices of nx, ny, nz properties
	PositionIndex [3]int // Indices of x, y, z properties
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// MeshData is a polygon mesh read back from an exported file
type MeshData struct {
	Vertices []r3.Vec
	Normals  []r3.Vec // empty if the file carries none
	Faces    [][]int  // vertex indices, 0-based
}

// WritePLY writes the surface as an ASCII PLY mesh of quads with per-vertex
// normals
func WritePLY(w io.Writer, s *geometry.Surface) error {
	verts := s.Vertices()
	normals := s.Normals()
	quads := s.Quads()

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "ply")
	fmt.Fprintln(bw, "format ascii 1.0")
	fmt.Fprintln(bw, "comment swept surface")
	fmt.Fprintf(bw, "comment rings %d ring_size %d\n", s.RingCount(), s.RingSize())
	fmt.Fprintf(bw, "element vertex %d\n", len(verts))
	fmt.Fprintln(bw, "property float x")
	fmt.Fprintln(bw, "property float y")
	fmt.Fprintln(bw, "property float z")
	fmt.Fprintln(bw, "property float nx")
	fmt.Fprintln(bw, "property float ny")
	fmt.Fprintln(bw, "property float nz")
	fmt.Fprintf(bw, "element face %d\n", len(quads))
	fmt.Fprintln(bw, "property list uchar int vertex_indices")
	fmt.Fprintln(bw, "end_header")

	for i, v := range verts {
		n := normals[i]
		fmt.Fprintf(bw, "%g %g %g %g %g %g\n", v.X, v.Y, v.Z, n.X, n.Y, n.Z)
	}
	for _, q := range quads {
		fmt.Fprintf(bw, "4 %d %d %d %d\n", q[0], q[1], q[2], q[3])
	}
	return bw.Flush()
}

// WriteOBJ writes the surface as a Wavefront OBJ object of quads
func WriteOBJ(w io.Writer, s *geometry.Surface, name string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# swept surface: %d rings of %d points\n", s.RingCount(), s.RingSize())
	if name != "" {
		fmt.Fprintf(bw, "o %s\n", name)
	}
	for _, v := range s.Vertices() {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, n := range s.Normals() {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
	}
	// OBJ indices are 1-based; vertex and normal share an index
	for _, q := range s.Quads() {
		fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d %d//%d\n",
			q[0]+1, q[0]+1, q[1]+1, q[1]+1, q[2]+1, q[2]+1, q[3]+1, q[3]+1)
	}
	return bw.Flush()
}

// SaveMesh writes the surface to filename, choosing the format from the
// extension (.ply or .obj)
func SaveMesh(filename string, s *geometry.Surface) error {
	var write func(io.Writer) error
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".ply":
		write = func(w io.Writer) error { return WritePLY(w, s) }
	case ".obj":
		name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		write = func(w io.Writer) error { return WriteOBJ(w, s, name) }
	default:
		return fmt.Errorf("unsupported mesh format %q", ext)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create mesh file: %w", err)
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write mesh: %w", err)
	}
	return file.Close()
}

// ReadPLY reads an ASCII PLY mesh with x/y/z vertex properties, optional
// normals and a polygon face list
func ReadPLY(r io.Reader) (*MeshData, error) {
	br := bufio.NewReader(r)
	header, err := parsePLYHeader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}
	if header.Format != "ascii" {
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	data := &MeshData{
		Vertices: make([]r3.Vec, 0, header.VertexCount),
		Faces:    make([][]int, 0, header.FaceCount),
	}
	if header.HasNormals {
		data.Normals = make([]r3.Vec, 0, header.VertexCount)
	}

	scanner := bufio.NewScanner(br)
	nextFields := func(what string, index int) ([]string, error) {
		for scanner.Scan() {
			if fields := strings.Fields(scanner.Text()); len(fields) > 0 {
				return fields, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected end of data reading %s %d", what, index)
	}

	for i := 0; i < header.VertexCount; i++ {
		fields, err := nextFields("vertex", i)
		if err != nil {
			return nil, err
		}
		if len(fields) < len(header.VertexProps) {
			return nil, fmt.Errorf("vertex %d has %d values, expected %d", i, len(fields), len(header.VertexProps))
		}
		values := make([]float64, len(header.VertexProps))
		for p := range header.VertexProps {
			v, err := strconv.ParseFloat(fields[p], 64)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", i, err)
			}
			values[p] = v
		}
		pi := header.PositionIndex
		data.Vertices = append(data.Vertices, r3.Vec{X: values[pi[0]], Y: values[pi[1]], Z: values[pi[2]]})
		if header.HasNormals {
			ni := header.NormalIndices
			data.Normals = append(data.Normals, r3.Vec{X: values[ni[0]], Y: values[ni[1]], Z: values[ni[2]]})
		}
	}

	for i := 0; i < header.FaceCount; i++ {
		fields, err := nextFields("face", i)
		if err != nil {
			return nil, err
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil || count < 3 || len(fields) < count+1 {
			return nil, fmt.Errorf("face %d: malformed vertex list", i)
		}
		face := make([]int, count)
		for k := range face {
			idx, err := strconv.Atoi(fields[k+1])
			if err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
			if idx < 0 || idx >= header.VertexCount {
				return nil, fmt.Errorf("face %d: vertex index %d out of bounds", i, idx)
			}
			face[k] = idx
		}
		data.Faces = append(data.Faces, face)
	}

	return data, nil
}

// LoadPLY reads an ASCII PLY file
func LoadPLY(filename string) (*MeshData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()
	return ReadPLY(file)
}

// parsePLYHeader consumes the header lines through end_header
func parsePLYHeader(r *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{
		VertexProps:   make([]PLYProperty, 0),
		FaceProps:     make([]PLYProperty, 0),
		PositionIndex: [3]int{-1, -1, -1},
	}

	var currentElement string
	first := true
	for {
		raw, err := r.ReadString('\n')
		if err != nil && raw == "" {
			return nil, fmt.Errorf("missing end_header: %w", err)
		}
		line := strings.TrimSpace(raw)

		if first {
			if line != "ply" {
				return nil, fmt.Errorf("not a PLY file")
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element definition: %s", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
				propIndex := len(header.VertexProps) - 1
				switch prop.Name {
				case "x":
					header.PositionIndex[0] = propIndex
				case "y":
					header.PositionIndex[1] = propIndex
				case "z":
					header.PositionIndex[2] = propIndex
				case "nx":
					header.HasNormals = true
					header.NormalIndices[0] = propIndex
				case "ny":
					header.HasNormals = true
					header.NormalIndices[1] = propIndex
				case "nz":
					header.HasNormals = true
					header.NormalIndices[2] = propIndex
				}
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("missing end_header: %w", err)
		}
	}

	for _, idx := range header.PositionIndex {
		if idx < 0 {
			return nil, fmt.Errorf("vertex element lacks x, y and z properties")
		}
	}
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	prop := PLYProperty{}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
	}

	return prop, nil
}
