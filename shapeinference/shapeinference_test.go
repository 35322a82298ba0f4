package shapeinference

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/sramslicer/internal/optypes"
	"github.com/gomlx/sramslicer/types/shapes"
)

// Aliases
var (
	Bool = dtypes.Bool
	I32  = dtypes.Int32
	F32  = dtypes.Float32
	BF16 = dtypes.BFloat16

	S = shapes.Make
)

// must1 panics if there is an error.
func must1[T any](value T, err error) T {
	if err != nil {
		panic(err)
	}
	return value
}

func TestBinaryOp(t *testing.T) {
	// Invalid data types check.
	var err error
	_, err = BinaryOp(optypes.Add, S(Bool, 1), S(Bool, 1))
	if err == nil {
		t.Error("expected error for Add(Bool, Bool), got nil")
	}
	_, err = BinaryOp(optypes.Add, S(F32, 2), S(BF16, 2))
	if err == nil {
		t.Error("expected error for Add(F32, BF16), got nil")
	}

	// Invalid operation type (not binary op).
	_, err = BinaryOp(optypes.Exp, S(F32), S(F32))
	if err == nil {
		t.Error("expected error for Exp(F32, F32), got nil")
	}

	// The same shape should be ok.
	var output shapes.Shape
	intMatrixShape := S(I32, 3, 3)
	output, err = BinaryOp(optypes.Max, intMatrixShape, intMatrixShape)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !intMatrixShape.Equal(output) {
		t.Errorf("expected output shape %s, got %s", intMatrixShape, output)
	}

	// Scalar with matrix.
	output = must1(BinaryOp(optypes.Mul, S(F32), S(F32, 2, 3)))
	if !output.Equal(S(F32, 2, 3)) {
		t.Errorf("expected output shape (Float32)[2 3], got %s", output)
	}

	// Broadcast of a bias row.
	output = must1(BinaryOp(optypes.Add, S(F32, 1024, 512), S(F32, 1, 512)))
	if !output.Equal(S(F32, 1024, 512)) {
		t.Errorf("expected output shape (Float32)[1024 512], got %s", output)
	}
	_, err = BinaryOp(optypes.Add, S(F32, 4, 3), S(F32, 2, 3))
	if err == nil {
		t.Error("expected error for Add([4 3], [2 3]), got nil")
	}
	_, err = BinaryOp(optypes.Add, S(F32, 4, 3), S(F32, 3))
	if err == nil {
		t.Error("expected error for Add of different ranks, got nil")
	}
}

func TestUnaryOp(t *testing.T) {
	_, err := UnaryOp(optypes.Add, S(F32, 3))
	if err == nil {
		t.Error("expected error for UnaryOp(Add), got nil")
	}
	_, err = UnaryOp(optypes.Exp, S(I32, 3))
	if err == nil {
		t.Error("expected error for Exp(Int32), got nil")
	}
	output := must1(UnaryOp(optypes.Relu, S(BF16, 7, 5)))
	if !output.Equal(S(BF16, 7, 5)) {
		t.Errorf("expected output shape (BFloat16)[7 5], got %s", output)
	}
	output = must1(UnaryOp(optypes.Copy, S(Bool, 2)))
	if !output.Equal(S(Bool, 2)) {
		t.Errorf("expected output shape (Bool)[2], got %s", output)
	}
}

func TestConvertDTypeAndDropout(t *testing.T) {
	output := must1(ConvertDType(S(F32, 16, 8), BF16))
	if !output.Equal(S(BF16, 16, 8)) {
		t.Errorf("expected output shape (BFloat16)[16 8], got %s", output)
	}
	out, mask, err := Dropout(S(F32, 16, 8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equal(S(F32, 16, 8)) || !mask.Equal(S(Bool, 16, 8)) {
		t.Errorf("unexpected Dropout shapes %s and %s", out, mask)
	}
	if _, _, err = Dropout(S(I32, 3)); err == nil {
		t.Error("expected error for Dropout(Int32), got nil")
	}
}

func TestMatMul(t *testing.T) {
	output := must1(MatMul(S(BF16, 1024, 256), S(BF16, 256, 512), dtypes.InvalidDType))
	if !output.Equal(S(BF16, 1024, 512)) {
		t.Errorf("expected output shape (BFloat16)[1024 512], got %s", output)
	}
	output = must1(MatMul(S(BF16, 1024, 256), S(BF16, 256, 512), F32))
	if !output.Equal(S(F32, 1024, 512)) {
		t.Errorf("expected output shape (Float32)[1024 512], got %s", output)
	}

	// Batched, and batched with a broadcast rhs.
	output = must1(MatMul(S(F32, 4, 32, 16), S(F32, 4, 16, 8), dtypes.InvalidDType))
	if !output.Equal(S(F32, 4, 32, 8)) {
		t.Errorf("expected output shape (Float32)[4 32 8], got %s", output)
	}
	output = must1(MatMul(S(F32, 4, 32, 16), S(F32, 16, 8), dtypes.InvalidDType))
	if !output.Equal(S(F32, 4, 32, 8)) {
		t.Errorf("expected output shape (Float32)[4 32 8], got %s", output)
	}

	for _, tc := range []struct {
		name     string
		lhs, rhs shapes.Shape
	}{
		{"contracting mismatch", S(F32, 3, 4), S(F32, 5, 6)},
		{"dtype mismatch", S(F32, 3, 4), S(BF16, 4, 6)},
		{"rank 1", S(F32, 4), S(F32, 4, 6)},
		{"batch mismatch", S(F32, 2, 3, 4), S(F32, 3, 4, 6)},
		{"bool", S(Bool, 3, 4), S(Bool, 4, 6)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := MatMul(tc.lhs, tc.rhs, dtypes.InvalidDType); err == nil {
				t.Errorf("expected error for MatMul(%s, %s), got nil", tc.lhs, tc.rhs)
			}
		})
	}
}
