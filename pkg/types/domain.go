package types

// ModelDescriptor describes a scoring model artifact on disk and how its
// input must be prepared. Descriptors are immutable after startup.
type ModelDescriptor struct {
	// Stable identifier for the model.
	// example: scut
	ID string `json:"id" example:"scut"`
	// Absolute path to the ONNX artifact on disk.
	// example: /home/user/models/beauty/beauty_model_scut_resnet50.onnx
	Path string `json:"path" example:"/home/user/models/beauty/beauty_model_scut_resnet50.onnx"`
	// Preprocessing profile name.
	// example: caffe
	Profile string `json:"profile" example:"caffe"`
	// Expected input height in pixels.
	// example: 224
	InputHeight int `json:"input_height" example:"224"`
	// Expected input width in pixels.
	// example: 224
	InputWidth int `json:"input_width" example:"224"`
	// Lower bound of the model's output scale.
	// example: 1.0
	ScaleMin float64 `json:"scale_min" example:"1.0"`
	// Upper bound of the model's output scale.
	// example: 5.0
	ScaleMax float64 `json:"scale_max" example:"5.0"`
	// Default ensemble weight when the request does not override it.
	// example: 0.5
	Weight float64 `json:"weight" example:"0.5"`
}
