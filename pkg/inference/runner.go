package inference

import (
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	//ErrBackendInit wraps every failure while loading the network onto its device
	ErrBackendInit = errors.New("backend initialization failed")
	//ErrBind wraps failures binding input buffers to the network
	ErrBind = errors.New("input binding failed")
	//ErrInfer wraps failures of the forward pass
	ErrInfer = errors.New("inference failed")
)

//DefaultOutput is the output layer of SSD style face detectors
const DefaultOutput = "detection_out"

//Options configures a Runner
type Options struct {
	Topology string //network description, e.g. an OpenVINO IR '.xml' file
	Weights  string //learned parameters, e.g. an OpenVINO IR '.bin' file
	Backend  string
	Target   string
	Inputs   []string //input layer names; empty binds the network's default input
	Outputs  []string //output layer names to fetch after each forward pass; empty fetches every declared output
}

//Runner holds one network compiled for its backend/target and reused for every inference
type Runner struct {
	net     gocv.Net
	inputs  []string
	outputs []string
	logger  golog.Logger
}

//NewRunner loads topology and weights and compiles them for the requested backend and target.
//Every error of this phase is returned as an *Error of stage ErrBackendInit.
func NewRunner(opts Options, logger golog.Logger) (*Runner, error) {
	r, err := newRunner(opts, logger)
	if err != nil {
		return nil, &Error{Stage: ErrBackendInit, Cause: err}
	}
	return r, nil
}

func newRunner(opts Options, logger golog.Logger) (*Runner, error) {
	for _, path := range []string{opts.Topology, opts.Weights} {
		if path == "" {
			return nil, errors.New("model topology and weights paths are required")
		}
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "could not access model file '%s'", path)
		}
	}

	backend, err := ParseBackend(opts.Backend)
	if err != nil {
		return nil, err
	}
	target, err := ParseTarget(opts.Target)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(opts.Topology, opts.Weights)
	if net.Empty() {
		net.Close()
		return nil, errors.Errorf("could not load network from '%s' and '%s'", opts.Topology, opts.Weights)
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return nil, errors.Wrapf(err, "could not set backend %q", opts.Backend)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return nil, errors.Wrapf(err, "could not set target %q", opts.Target)
	}

	outputs := opts.Outputs
	if len(outputs) == 0 {
		if outputs, err = outputNames(net.GetUnconnectedOutLayers(), net.GetLayerNames()); err != nil {
			net.Close()
			return nil, err
		}
	}
	inputs := opts.Inputs
	if len(inputs) == 0 {
		inputs = []string{""}
	}

	logger.Debugw("network loaded", "topology", opts.Topology, "weights", opts.Weights,
		"backend", opts.Backend, "target", opts.Target, "outputs", outputs)

	return &Runner{net: net, inputs: inputs, outputs: outputs, logger: logger}, nil
}

//outputNames resolves the unconnected output layer ids of a network to their names.
//Ids count from 1 since layer 0 is the network input, which GetLayerNames leaves out.
func outputNames(ids []int, layers []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, errors.New("network declares no outputs")
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if id < 1 || id > len(layers) {
			return nil, errors.Errorf("output layer id %d out of range of %d layers", id, len(layers))
		}
		names = append(names, layers[id-1])
	}
	return names, nil
}

//DetectionOutput picks the output carrying the detections: DefaultOutput when bound, the first output otherwise
func DetectionOutput(outputs []string) string {
	for _, name := range outputs {
		if name == DefaultOutput {
			return name
		}
	}
	if len(outputs) == 0 {
		return ""
	}
	return outputs[0]
}

//Inputs returns the input layer names every Run binds ("" is the default input)
func (r *Runner) Inputs() []string {
	return r.inputs
}

//Outputs returns the output layer names every Run returns
func (r *Runner) Outputs() []string {
	return r.outputs
}

//Run binds the given named inputs, runs one synchronous forward pass and returns the named outputs.
//The caller must Close every returned Mat.
func (r *Runner) Run(inputs map[string]gocv.Mat) (map[string]gocv.Mat, error) {
	for _, name := range r.inputs {
		blob, ok := inputs[name]
		if !ok {
			return nil, &Error{Stage: ErrBind, Cause: errors.Errorf("no buffer for input %q", name)}
		}
		if blob.Empty() {
			return nil, &Error{Stage: ErrBind, Cause: errors.Errorf("empty buffer for input %q", name)}
		}
		r.net.SetInput(blob, name)
	}

	mats := r.net.ForwardLayers(r.outputs)
	outputs := make(map[string]gocv.Mat, len(r.outputs))
	for i, m := range mats {
		if i < len(r.outputs) {
			outputs[r.outputs[i]] = m
		} else {
			m.Close()
		}
	}

	for _, name := range r.outputs {
		if m, ok := outputs[name]; !ok || m.Empty() {
			closeAll(outputs)
			return nil, &Error{Stage: ErrInfer, Cause: errors.Errorf("no data produced for output %q", name)}
		}
	}

	r.logger.Debugw("forward pass done", "outputs", r.outputs)
	return outputs, nil
}

//Close releases the compiled network
func (r *Runner) Close() error {
	return r.net.Close()
}

func closeAll(mats map[string]gocv.Mat) {
	for _, m := range mats {
		m.Close()
	}
}
