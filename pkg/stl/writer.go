package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/fluidcsg/pkg/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// Write encodes tris as binary STL. name goes into the 80-byte header and
// is truncated to fit.
func Write(w io.Writer, name string, tris []geometry.Triangle) error {
	if uint64(len(tris)) > math.MaxUint32 {
		return fmt.Errorf("stl: %d triangles exceed the binary format limit", len(tris))
	}
	bw := bufio.NewWriter(w)

	header := make([]byte, headerSize)
	copy(header, name)
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("stl: failed to write header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(tris))); err != nil {
		return fmt.Errorf("stl: failed to write triangle count: %w", err)
	}

	for i, t := range tris {
		f := binaryFacet{
			Normal: toFloat32(t.Normal),
			V1:     toFloat32(t.V1),
			V2:     toFloat32(t.V2),
			V3:     toFloat32(t.V3),
		}
		if err := binary.Write(bw, binary.LittleEndian, &f); err != nil {
			return fmt.Errorf("stl: failed to write triangle %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteASCII encodes tris as ASCII STL. Numbers are written with the
// shortest representation that parses back to the same float32.
func WriteASCII(w io.Writer, name string, tris []geometry.Triangle) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, t := range tris {
		fmt.Fprintf(bw, "  facet normal %s\n", formatVec(t.Normal))
		fmt.Fprintf(bw, "    outer loop\n")
		for _, v := range t.Vertices() {
			fmt.Fprintf(bw, "      vertex %s\n", formatVec(v))
		}
		fmt.Fprintf(bw, "    endloop\n")
		fmt.Fprintf(bw, "  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("stl: failed to write ASCII STL: %w", err)
	}
	return nil
}

// WriteFile writes tris to path, in ASCII when ascii is set. The base name
// of path without its extension becomes the solid name.
func WriteFile(path string, tris []geometry.Triangle, ascii bool) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stl: failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("stl: failed to close file: %w", cerr)
		}
	}()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if ascii {
		return WriteASCII(file, name, tris)
	}
	return Write(file, name, tris)
}

func toFloat32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func formatVec(v r3.Vec) string {
	f := toFloat32(v)
	return formatFloat(f[0]) + " " + formatFloat(f[1]) + " " + formatFloat(f[2])
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'e', -1, 32)
}
