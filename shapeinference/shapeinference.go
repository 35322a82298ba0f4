// Package shapeinference calculates the shape resulting from operations and validates its inputs.
//
// The graph package calls it eagerly, so a malformed bundle is rejected when it is built and
// not when it is sliced.
//
// It defines a BinaryOp function for shape inference for the binary elementwise functions, using the standard
// broadcasting rules. The unary functions don't change the shape.
//
// For the remainder operations, each one gets its own shape inference function.
package shapeinference

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/sramslicer/internal/optypes"
	"github.com/gomlx/sramslicer/internal/utils"
	"github.com/gomlx/sramslicer/types/shapes"
	"github.com/pkg/errors"
)

var (
	// NumberOperations can take any type of number as input: integers or floats.
	NumberOperations = utils.SetWith(
		optypes.Add,
		optypes.Sub,
		optypes.Mul,
		optypes.Max,
		optypes.Relu,
		optypes.MatMul,
		optypes.BatchMatMul,
	)

	// FloatOperations operates only on float numbers.
	FloatOperations = utils.SetWith(
		optypes.Exp,
		optypes.Tanh,
		optypes.Dropout,
	)

	// StandardBinaryOperations include all elementwise operations that have two operands usually named
	// lhs (left-hand-side) and rhs (right-hand-side).
	StandardBinaryOperations = utils.SetWith(
		optypes.Add,
		optypes.Sub,
		optypes.Mul,
		optypes.Max,
	)

	// StandardUnaryOperations include all operations that have a single operand as input, and the return shape is the
	// same as the input.
	StandardUnaryOperations = utils.SetWith(
		optypes.Relu,
		optypes.Exp,
		optypes.Tanh,
		optypes.Copy,
	)
)

func checkDType(opType optypes.OpType, operand shapes.Shape) error {
	if operand.DType == dtypes.InvalidDType {
		return errors.Errorf("invalid shape %s for %s", operand, opType)
	}
	if NumberOperations.Has(opType) && !(operand.DType.IsInt() || operand.DType.IsFloat()) {
		return errors.Errorf("numeric op %s must have a number (Int32, Float32, ...) data type as input, got %s", opType, operand)
	}
	if FloatOperations.Has(opType) && !operand.DType.IsFloat() {
		return errors.Errorf("float op %s must have a float (Float32, BFloat16, ...) data type as input, got %s", opType, operand)
	}
	return nil
}

// BinaryOp returns the expected output shape for ops in the StandardBinaryOperations set.
//
// Operands must have the same dtype and, unless one of them is a scalar, the same rank. Axes of
// dimension 1 are broadcast.
func BinaryOp(opType optypes.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	if !StandardBinaryOperations.Has(opType) {
		err = errors.Errorf("operations %s is not in the StandardBinaryOperations set, cannot process it with BinaryOp", opType)
		return
	}
	if lhsShape.DType == dtypes.InvalidDType || rhsShape.DType == dtypes.InvalidDType {
		err = errors.Errorf("invalid shape for %s or %s for %q", lhsShape, rhsShape, opType)
		return
	}
	if lhsShape.DType != rhsShape.DType {
		err = errors.Errorf("data types for %q must match, got %s and %s", opType, lhsShape, rhsShape)
		return
	}
	if err = checkDType(opType, lhsShape); err != nil {
		return
	}
	return binaryOpImpl(opType, lhsShape, rhsShape)
}

func binaryOpImpl(opType optypes.OpType, lhsShape, rhsShape shapes.Shape) (output shapes.Shape, err error) {
	// Trivial cases: if one of the sides is a scalar, return the other side shape.
	if lhsShape.IsScalar() {
		return rhsShape.Clone(), nil
	}
	if rhsShape.IsScalar() {
		return lhsShape.Clone(), nil
	}

	// Other cases, either the dimensions match or one of them is 1.
	if lhsShape.Rank() != rhsShape.Rank() {
		err = errors.Errorf("if operands are not scalars, their rank must match for BinaryOp (%s), got shapes %s and %s",
			opType, lhsShape, rhsShape)
		return
	}
	output = lhsShape.Clone()
	for axis := range output.Rank() {
		lhsDim := lhsShape.Dimensions[axis]
		rhsDim := rhsShape.Dimensions[axis]
		if lhsDim != 1 && rhsDim != 1 && lhsDim != rhsDim {
			err = errors.Errorf("dimension of axis #%d doesn't match and cannot be broadcast for BinaryOp (%s), got shapes %s and %s",
				axis, opType, lhsShape, rhsShape)
			return
		}
		output.Dimensions[axis] = max(lhsDim, rhsDim)
	}
	return
}

// UnaryOp checks the validity of the data type for StandardUnaryOperations and returns either an error or
// the output shape, which is the same as the operand.
func UnaryOp(opType optypes.OpType, operand shapes.Shape) (output shapes.Shape, err error) {
	if !StandardUnaryOperations.Has(opType) {
		err = errors.Errorf("operation %s is not in the StandardUnaryOperations set, cannot process it with UnaryOp", opType)
		return
	}
	if err = checkDType(opType, operand); err != nil {
		return
	}
	output = operand.Clone()
	return
}

// ConvertDType returns the operand shape with the dtype replaced.
func ConvertDType(operand shapes.Shape, dtype dtypes.DType) (output shapes.Shape, err error) {
	if operand.DType == dtypes.InvalidDType || dtype == dtypes.InvalidDType {
		err = errors.Errorf("invalid dtype for ConvertDType(%s, %s)", operand, dtype)
		return
	}
	output = operand.WithDType(dtype)
	return
}

// Dropout returns the shapes of the two outputs of a dropout: the result (same as the operand)
// and the boolean mask that was applied.
func Dropout(operand shapes.Shape) (output, mask shapes.Shape, err error) {
	if err = checkDType(optypes.Dropout, operand); err != nil {
		return
	}
	if operand.IsScalar() {
		err = errors.Errorf("Dropout requires a tensor operand, got scalar %s", operand)
		return
	}
	output = operand.Clone()
	mask = operand.WithDType(dtypes.Bool)
	return
}

// MatMul returns the shape of lhs[..., M, K] x rhs[..., K, N] -> [..., M, N].
//
// Both operands must have rank >= 2 and the same dtype. Leading (batch) axes must match, except
// that an operand may have rank 2 and be broadcast over the batch of the other. The result has
// dtype outputDType, or the operands' dtype if outputDType is InvalidDType.
func MatMul(lhs, rhs shapes.Shape, outputDType dtypes.DType) (output shapes.Shape, err error) {
	dtype := lhs.DType
	if dtype != rhs.DType {
		err = errors.Errorf("MatMul lhs (left-hand-side) and rhs operands don't match data types: %s and %s", dtype, rhs.DType)
		return
	}
	if err = checkDType(optypes.MatMul, lhs); err != nil {
		return
	}
	if lhs.Rank() < 2 || rhs.Rank() < 2 {
		err = errors.Errorf("MatMul operands must have rank >= 2, got lhs=%s and rhs=%s", lhs, rhs)
		return
	}
	if lhs.Dim(-1) != rhs.Dim(-2) {
		err = errors.Errorf("MatMul contracting dimensions don't match: lhs[%d]=%d != rhs[%d]=%d",
			lhs.Rank()-1, lhs.Dim(-1), rhs.Rank()-2, rhs.Dim(-2))
		return
	}
	batchDims, err := matMulBatchDims(lhs, rhs)
	if err != nil {
		return
	}
	if outputDType == dtypes.InvalidDType {
		outputDType = dtype
	}
	resultingDims := make([]int, 0, len(batchDims)+2)
	resultingDims = append(resultingDims, batchDims...)
	resultingDims = append(resultingDims, lhs.Dim(-2), rhs.Dim(-1))
	output = shapes.Make(outputDType, resultingDims...)
	return
}

func matMulBatchDims(lhs, rhs shapes.Shape) ([]int, error) {
	lhsBatch := lhs.Dimensions[:lhs.Rank()-2]
	rhsBatch := rhs.Dimensions[:rhs.Rank()-2]
	switch {
	case len(lhsBatch) == 0:
		return rhsBatch, nil
	case len(rhsBatch) == 0:
		return lhsBatch, nil
	case len(lhsBatch) != len(rhsBatch):
		return nil, errors.Errorf("MatMul batch ranks don't match: lhs=%s, rhs=%s", lhs, rhs)
	}
	for axis, dim := range lhsBatch {
		if rhsBatch[axis] != dim {
			return nil, errors.Errorf("MatMul batch dimensions don't match: lhs[%d]=%d != rhs[%d]=%d",
				axis, dim, axis, rhsBatch[axis])
		}
	}
	return lhsBatch, nil
}
