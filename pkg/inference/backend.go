package inference

import (
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var backends = map[string]gocv.NetBackendType{
	"default":  gocv.NetBackendDefault,
	"halide":   gocv.NetBackendHalide,
	"openvino": gocv.NetBackendOpenVINO,
	"opencv":   gocv.NetBackendOpenCV,
	"vulkan":   gocv.NetBackendVKCOM,
	"cuda":     gocv.NetBackendCUDA,
}

var targets = map[string]gocv.NetTargetType{
	"cpu":         gocv.NetTargetCPU,
	"opencl":      gocv.NetTargetFP32,
	"opencl_fp16": gocv.NetTargetFP16,
	"vpu":         gocv.NetTargetVPU,
	"myriad":      gocv.NetTargetVPU,
	"vulkan":      gocv.NetTargetVulkan,
	"fpga":        gocv.NetTargetFPGA,
	"cuda":        gocv.NetTargetCUDA,
	"cuda_fp16":   gocv.NetTargetCUDAFP16,
}

//ParseBackend maps a backend name (case insensitive) to OpenCV's DNN backend
func ParseBackend(name string) (gocv.NetBackendType, error) {
	if b, ok := backends[strings.ToLower(strings.TrimSpace(name))]; ok {
		return b, nil
	}
	return gocv.NetBackendDefault, errors.Errorf("unknown inference backend %q", name)
}

//ParseTarget maps a target device name (case insensitive) to OpenCV's DNN target
func ParseTarget(name string) (gocv.NetTargetType, error) {
	if t, ok := targets[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return gocv.NetTargetCPU, errors.Errorf("unknown inference target %q", name)
}
