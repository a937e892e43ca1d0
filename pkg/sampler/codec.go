package sampler

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/shape"
)

// Binary layout (little endian):
//
//	magic   [4]byte  "PCLD"
//	version uint8    1
//	kindLen uint8
//	kind    [kindLen]byte
//	seed    uint64
//	count   uint32
//	points  [count][3]float64
//	jitter  [count]float64
var codecMagic = [4]byte{'P', 'C', 'L', 'D'}

const codecVersion = 1

// maxDecodeCount bounds allocations when decoding untrusted input.
const maxDecodeCount = 1 << 22

// Encode serializes c.
func Encode(c *PointCloud) []byte {
	n := c.Len()
	var buf bytes.Buffer
	buf.Grow(4 + 2 + len(c.Shape) + 12 + n*32)

	buf.Write(codecMagic[:])
	buf.WriteByte(codecVersion)
	buf.WriteByte(byte(len(c.Shape)))
	buf.WriteString(string(c.Shape))

	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], c.Seed)
	buf.Write(scratch[:])
	binary.LittleEndian.PutUint32(scratch[:4], uint32(n))
	buf.Write(scratch[:4])

	put := func(f float64) {
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(f))
		buf.Write(scratch[:])
	}
	for _, p := range c.Points {
		put(p.X)
		put(p.Y)
		put(p.Z)
	}
	for _, j := range c.Jitter {
		put(j)
	}
	return buf.Bytes()
}

// Decode parses data produced by Encode.
func Decode(data []byte) (*PointCloud, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != codecMagic {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "not a point cloud")
	}
	version, err := r.ReadByte()
	if err != nil {
		return nil, truncated(err)
	}
	if version != codecVersion {
		return nil, errors.New(errors.ErrCodeUnsupported, "point cloud version %d", version)
	}

	kindLen, err := r.ReadByte()
	if err != nil {
		return nil, truncated(err)
	}
	kind := make([]byte, kindLen)
	if _, err := io.ReadFull(r, kind); err != nil {
		return nil, truncated(err)
	}

	var header struct {
		Seed  uint64
		Count uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, truncated(err)
	}
	if header.Count > maxDecodeCount {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "point count %d exceeds limit", header.Count)
	}
	if want := int(header.Count) * 32; r.Len() != want {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "payload is %d bytes, want %d", r.Len(), want)
	}

	n := int(header.Count)
	flat := make([]float64, n*4)
	if err := binary.Read(r, binary.LittleEndian, flat); err != nil {
		return nil, truncated(err)
	}

	c := &PointCloud{
		Shape:  shape.Kind(kind),
		Seed:   header.Seed,
		Points: make([]Vec3, n),
		Jitter: flat[n*3:],
	}
	for i := range n {
		c.Points[i] = Vec3{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return c, nil
}

func truncated(err error) error {
	return errors.Wrap(errors.ErrCodeInvalidFormat, err, "truncated point cloud")
}
