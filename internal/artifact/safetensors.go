package artifact

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/goccy/go-json"
)

// Tensor is one named array from a safetensors file, widened to float32.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Len is the number of elements implied by Shape.
func (t Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Tensors maps tensor names to their values.
type Tensors map[string]Tensor

// Get returns the named tensor or an error naming the missing key.
func (ts Tensors) Get(name string) (Tensor, error) {
	t, ok := ts[name]
	if !ok {
		return Tensor{}, fmt.Errorf("safetensors: tensor %q not found", name)
	}
	return t, nil
}

type tensorMeta struct {
	Dtype       string `json:"dtype"`
	Shape       []int  `json:"shape"`
	DataOffsets [2]int `json:"data_offsets"`
}

// ReadSafetensors loads every tensor from a safetensors file. F32 and F64
// tensors are supported; F64 values are narrowed to float32.
func ReadSafetensors(path string) (Tensors, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	ts, err := ParseSafetensors(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return ts, nil
}

// ParseSafetensors decodes an in-memory safetensors container: an 8-byte
// little-endian header length, a JSON header, then raw little-endian data.
func ParseSafetensors(data []byte) (Tensors, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("safetensors: file too small: %d bytes", len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return nil, fmt.Errorf("safetensors: header length %d exceeds file size", headerLen)
	}

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &header); err != nil {
		return nil, fmt.Errorf("safetensors: failed to parse header: %w", err)
	}

	body := data[8+headerLen:]
	out := make(Tensors, len(header))
	for name, raw := range header {
		if name == "__metadata__" {
			continue
		}
		var meta tensorMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("safetensors: tensor %q: bad metadata: %w", name, err)
		}
		t, err := decodeTensor(meta, body)
		if err != nil {
			return nil, fmt.Errorf("safetensors: tensor %q: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

func decodeTensor(meta tensorMeta, body []byte) (Tensor, error) {
	var size int
	switch meta.Dtype {
	case "F32":
		size = 4
	case "F64":
		size = 8
	default:
		return Tensor{}, fmt.Errorf("unsupported dtype %s", meta.Dtype)
	}

	n := 1
	for _, d := range meta.Shape {
		if d < 0 {
			return Tensor{}, fmt.Errorf("negative dimension in shape %v", meta.Shape)
		}
		n *= d
	}

	start, end := meta.DataOffsets[0], meta.DataOffsets[1]
	if start < 0 || end < start || end > len(body) {
		return Tensor{}, fmt.Errorf("data range [%d:%d] outside data section of %d bytes", start, end, len(body))
	}
	if end-start != n*size {
		return Tensor{}, fmt.Errorf("data size %d doesn't match shape %v", end-start, meta.Shape)
	}

	raw := body[start:end]
	values := make([]float32, n)
	for i := range values {
		if size == 4 {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		} else {
			values[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:])))
		}
	}
	return Tensor{Shape: append([]int(nil), meta.Shape...), Data: values}, nil
}

// EncodeSafetensors serializes tensors as F32 in name order.
func EncodeSafetensors(ts Tensors) ([]byte, error) {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]tensorMeta, len(ts))
	var body bytes.Buffer
	for _, name := range names {
		t := ts[name]
		if t.Len() != len(t.Data) {
			return nil, fmt.Errorf("safetensors: tensor %q: shape %v holds %d values, got %d", name, t.Shape, t.Len(), len(t.Data))
		}
		start := body.Len()
		for _, v := range t.Data {
			_ = binary.Write(&body, binary.LittleEndian, math.Float32bits(v))
		}
		header[name] = tensorMeta{Dtype: "F32", Shape: t.Shape, DataOffsets: [2]int{start, body.Len()}}
	}

	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("safetensors: encode header: %w", err)
	}
	for len(hdr)%8 != 0 {
		hdr = append(hdr, ' ')
	}

	out := make([]byte, 8, 8+len(hdr)+body.Len())
	binary.LittleEndian.PutUint64(out, uint64(len(hdr)))
	out = append(out, hdr...)
	out = append(out, body.Bytes()...)
	return out, nil
}
