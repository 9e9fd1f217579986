package shape

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/ifcsolid/pkg/geom"
)

// magic opens every binary polyhedron.
var magic = [4]byte{'I', 'F', 'C', 'P'}

const version uint32 = 1

// ErrFormat reports malformed encoded geometry.
var ErrFormat = errors.New("malformed geometry")

// Encode writes the geometry in its own Type.
//
// The binary layout, all little-endian:
//
//	magic "IFCP", uint32 version, uint32 solid count, then per solid
//	uint32 vertex count, float64 x y z per vertex, uint32 face count,
//	then per face uint32 triangle count and three uint32 indices per
//	triangle.
//
// The text layout writes "solid", "v x y z" and "f a b c" records, with
// 1-based indices that continue across solids.
func Encode(w io.Writer, g *Geometry) error {
	switch g.Type {
	case PolyhedronBinary:
		return encodeBinary(w, g)
	case Polyhedron:
		return encodeText(w, g)
	}
	return fmt.Errorf("encode: unsupported geometry type %s", g.Type)
}

// Bytes returns the encoded geometry.
func (g *Geometry) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeBinary(w io.Writer, g *Geometry) error {
	bw := bufio.NewWriter(w)
	put := func(v any) error { return binary.Write(bw, binary.LittleEndian, v) }
	if err := put(magic); err != nil {
		return err
	}
	if err := put([2]uint32{version, uint32(len(g.Solids))}); err != nil {
		return err
	}
	for _, s := range g.Solids {
		if err := put(uint32(len(s.Positions))); err != nil {
			return err
		}
		for _, p := range s.Positions {
			if err := put([3]float64{p.X, p.Y, p.Z}); err != nil {
				return err
			}
		}
		if err := put(uint32(len(s.Faces))); err != nil {
			return err
		}
		for _, f := range s.Faces {
			if err := put(uint32(len(f.Triangles))); err != nil {
				return err
			}
			if err := put(f.Triangles); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func encodeText(w io.Writer, g *Geometry) error {
	bw := bufio.NewWriter(w)
	base := uint32(1)
	for i, s := range g.Solids {
		fmt.Fprintf(bw, "solid %d\n", i)
		for _, p := range s.Positions {
			fmt.Fprintf(bw, "v %s %s %s\n", num(p.X), num(p.Y), num(p.Z))
		}
		for _, f := range s.Faces {
			if f.Entity != "" {
				fmt.Fprintf(bw, "g %s\n", f.Entity)
			}
			for _, t := range f.Triangles {
				fmt.Fprintf(bw, "f %d %d %d\n", t[0]+base, t[1]+base, t[2]+base)
			}
		}
		base += uint32(len(s.Positions))
	}
	return bw.Flush()
}

func num(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// Decode reads geometry in either encoding, telling them apart by the
// binary magic.
func Decode(r io.Reader) (*Geometry, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(magic))
	if err == nil && [4]byte(head) == magic {
		return decodeBinary(br)
	}
	return decodeText(br)
}

// chunk caps how many records are allocated ahead of the bytes that back
// them, so a corrupt count cannot force a huge allocation.
const chunk = 4096

func readRecords[T any](get func(any) error, n uint32) ([]T, error) {
	out := make([]T, 0, min(int(n), chunk))
	buf := make([]T, min(int(n), chunk))
	for left := int(n); left > 0; {
		k := min(left, chunk)
		if err := get(buf[:k]); err != nil {
			return nil, err
		}
		out = append(out, buf[:k]...)
		left -= k
	}
	return out, nil
}

func decodeBinary(br *bufio.Reader) (*Geometry, error) {
	get := func(v any) error {
		if err := binary.Read(br, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: %v", ErrFormat, err)
		}
		return nil
	}
	var m [4]byte
	if err := get(&m); err != nil {
		return nil, err
	}
	var head [2]uint32
	if err := get(&head); err != nil {
		return nil, err
	}
	if head[0] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, head[0])
	}

	g := &Geometry{Type: PolyhedronBinary}
	for i := uint32(0); i < head[1]; i++ {
		s := &Solid{}
		var nv uint32
		if err := get(&nv); err != nil {
			return nil, err
		}
		coords, err := readRecords[[3]float64](get, nv)
		if err != nil {
			return nil, err
		}
		s.Positions = make([]geom.Vec, len(coords))
		for k, c := range coords {
			s.Positions[k] = geom.V(c[0], c[1], c[2])
		}
		var nf uint32
		if err := get(&nf); err != nil {
			return nil, err
		}
		for j := uint32(0); j < nf; j++ {
			var nt uint32
			if err := get(&nt); err != nil {
				return nil, err
			}
			tris, err := readRecords[[3]uint32](get, nt)
			if err != nil {
				return nil, err
			}
			for _, t := range tris {
				if t[0] >= nv || t[1] >= nv || t[2] >= nv {
					return nil, fmt.Errorf("%w: index out of range in solid %d", ErrFormat, i)
				}
			}
			s.Faces = append(s.Faces, Face{Triangles: tris})
		}
		g.Solids = append(g.Solids, s)
	}
	return g, nil
}

// decodeText reads the record layout written by encodeText. Each "g"
// record opens a face; triangles before the first one in a solid form an
// unnamed face.
func decodeText(r io.Reader) (*Geometry, error) {
	g := &Geometry{Type: Polyhedron}
	var (
		s    *Solid
		base uint32 = 1
	)
	finish := func() error {
		if s == nil {
			return nil
		}
		n := uint32(len(s.Positions))
		for _, f := range s.Faces {
			for _, t := range f.Triangles {
				if t[0] >= n || t[1] >= n || t[2] >= n {
					return fmt.Errorf("%w: index out of range in solid %d", ErrFormat, len(g.Solids))
				}
			}
		}
		g.Solids = append(g.Solids, s)
		base += n
		return nil
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		bad := func(err error) error { return fmt.Errorf("%w: line %d: %v", ErrFormat, line, err) }
		if fields[0] == "solid" {
			if err := finish(); err != nil {
				return nil, err
			}
			s = &Solid{}
			continue
		}
		if s == nil {
			return nil, bad(fmt.Errorf("%q record before the first solid", fields[0]))
		}
		switch fields[0] {
		case "v":
			if len(fields) != 4 {
				return nil, bad(errors.New("vertex needs three coordinates"))
			}
			var c [3]float64
			for k := range c {
				v, err := strconv.ParseFloat(fields[k+1], 64)
				if err != nil {
					return nil, bad(err)
				}
				c[k] = v
			}
			s.Positions = append(s.Positions, geom.V(c[0], c[1], c[2]))
		case "g":
			s.Faces = append(s.Faces, Face{Entity: strings.Join(fields[1:], " ")})
		case "f":
			if len(fields) != 4 {
				return nil, bad(errors.New("triangle needs three indices"))
			}
			var t [3]uint32
			for k := range t {
				v, err := strconv.ParseUint(fields[k+1], 10, 32)
				if err != nil {
					return nil, bad(err)
				}
				if uint32(v) < base {
					return nil, bad(fmt.Errorf("index %d belongs to an earlier solid", v))
				}
				t[k] = uint32(v) - base
			}
			if len(s.Faces) == 0 {
				s.Faces = append(s.Faces, Face{})
			}
			f := &s.Faces[len(s.Faces)-1]
			f.Triangles = append(f.Triangles, t)
		default:
			return nil, bad(fmt.Errorf("unknown record %q", fields[0]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return g, nil
}
