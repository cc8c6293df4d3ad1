package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalErrorFormatting(t *testing.T) {
	err := Newf(ErrCodeInsufficientSignal, "only %d labeled samples", 12).
		WithStage(StageLabel).
		WithAsset("BTC/USDT")

	msg := err.Error()
	assert.Contains(t, msg, "INSUFFICIENT_SIGNAL")
	assert.Contains(t, msg, "stage=label")
	assert.Contains(t, msg, "asset=BTC/USDT")
	assert.Contains(t, msg, "only 12 labeled samples")
}

func TestWrapPreservesEvalError(t *testing.T) {
	orig := New(ErrCodeUnknownFeature, "no such feature").WithStage(StageFeatures)
	wrapped := Wrap(orig, ErrCodeInternal, "pipeline failed")

	require.Same(t, orig, wrapped)
	assert.Equal(t, ErrCodeUnknownFeature, wrapped.Code)
	assert.Equal(t, StageFeatures, wrapped.Stage)
}

func TestWrapPlainError(t *testing.T) {
	cause := fmt.Errorf("singular matrix")
	err := Wrap(cause, ErrCodeTraining, "model fit failed")

	require.NotNil(t, err)
	assert.Equal(t, ErrCodeTraining, err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nope"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeDataValidation, CodeOf(New(ErrCodeDataValidation, "gap")))
	assert.Equal(t, ErrCodeInternal, CodeOf(fmt.Errorf("plain")))
}

func TestWithContext(t *testing.T) {
	err := New(ErrCodeConfiguration, "invalid barriers").
		WithContext("stop_loss_pct", -0.1).
		WithContext("take_profit_pct", 0.06)

	assert.Equal(t, -0.1, err.Context["stop_loss_pct"])
	assert.Equal(t, 0.06, err.Context["take_profit_pct"])
}
