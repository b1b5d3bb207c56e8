package ir

// FeatureSpec gates decoding and validation of post-MVP constructs. An
// opcode or section whose gating feature is off is a malformed-module error
// at decode time.
type FeatureSpec struct {
	Threads               bool
	SIMD                  bool
	ExceptionHandling     bool
	ReferenceTypes        bool
	MultiValue            bool
	MultiMemory           bool
	MultiTable            bool
	BulkMemory            bool
	SignExtension         bool
	NonTrappingFloatToInt bool
	TailCalls             bool
}

// FeatureSpecMVP enables nothing beyond WebAssembly 1.0.
func FeatureSpecMVP() FeatureSpec { return FeatureSpec{} }

// FeatureSpecAll enables every feature this implementation understands.
func FeatureSpecAll() FeatureSpec {
	return FeatureSpec{
		Threads:               true,
		SIMD:                  true,
		ExceptionHandling:     true,
		ReferenceTypes:        true,
		MultiValue:            true,
		MultiMemory:           true,
		MultiTable:            true,
		BulkMemory:            true,
		SignExtension:         true,
		NonTrappingFloatToInt: true,
		TailCalls:             true,
	}
}
