package classifier

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/crimson-sun/sieve/internal/engine/feature"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Only the first call's
// library path takes effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNX runs a converted scikit-learn style classifier that takes a float
// tensor [N, F] and emits an int64 label tensor [N].
type ONNX struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	width      int
}

// OpenONNX loads the model and creates a session. Tensors are allocated per
// call, so Predict may run concurrently.
func OpenONNX(modelPath string, opts Options) (*ONNX, error) {
	libPath := opts.ONNXLibrary
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	in, width, err := pickInput(inputs)
	if err != nil {
		return nil, err
	}
	out, err := pickLabelOutput(outputs)
	if err != nil {
		return nil, err
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer so.Destroy()
	if opts.IntraOpThreads > 0 {
		if err := so.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("onnx: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{in}, []string{out}, so)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}
	return &ONNX{session: session, inputName: in, outputName: out, width: width}, nil
}

// pickInput expects exactly one float input shaped [N, F].
func pickInput(inputs []ort.InputOutputInfo) (string, int, error) {
	if len(inputs) != 1 {
		return "", 0, fmt.Errorf("onnx: expected 1 input, model has %d", len(inputs))
	}
	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		return "", 0, fmt.Errorf("onnx: input %q has type %v, want float", in.Name, in.DataType)
	}
	if len(in.Dimensions) != 2 {
		return "", 0, fmt.Errorf("onnx: input %q has shape %v, want [N, F]", in.Name, in.Dimensions)
	}
	width := int(in.Dimensions[1])
	if width <= 0 {
		width = -1
	}
	return in.Name, width, nil
}

// pickLabelOutput prefers an int64 output named "label" or "output_label",
// falling back to the first int64 output.
func pickLabelOutput(outputs []ort.InputOutputInfo) (string, error) {
	first := ""
	for _, o := range outputs {
		if o.DataType != ort.TensorElementDataTypeInt64 {
			continue
		}
		if o.Name == "label" || o.Name == "output_label" {
			return o.Name, nil
		}
		if first == "" {
			first = o.Name
		}
	}
	if first == "" {
		return "", fmt.Errorf("onnx: model has no int64 label output")
	}
	return first, nil
}

func (c *ONNX) Width() int { return c.width }

func (c *ONNX) Predict(m feature.Matrix) (int, error) {
	if err := checkShape(m, c.width); err != nil {
		return 0, fmt.Errorf("onnx: %w", err)
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(m.Cols)), m.Data)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := c.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return 0, fmt.Errorf("onnx: inference failed: %w", err)
	}

	switch label := out.GetData()[0]; label {
	case 0, 1:
		return int(label), nil
	default:
		return 0, fmt.Errorf("onnx: label %d is not binary", label)
	}
}

// Close releases the session.
func (c *ONNX) Close() error {
	return c.session.Destroy()
}
