package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"studentperf/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestCodeFor(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{nil, ""},
		{fmt.Errorf("load: %w", core.ErrArtifactNotFound), CodeNotFound},
		{core.NewNotFoundError("model", "7"), CodeNotFound},
		{core.ErrModelNotFitted, CodeNotFitted},
		{fmt.Errorf("%w: logit", core.ErrOptimizationDidNotConverge), CodeNotConverged},
		{core.NewUnknownFeatureError("x"), CodeInvalidInput},
		{core.NewTrainingDataError("empty"), CodeInvalidInput},
		{ConfigInvalid("bad"), CodeConfigInvalid},
		{stderrors.New("boom"), CodeInternalError},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, CodeFor(c.err), "%v", c.err)
	}
}

func TestWrap_KeepsCodeAndCause(t *testing.T) {
	err := Wrap(core.ErrArtifactNotFound, "load model")
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, "load model: resource not found: model artifact", err.Error())

	outer := Wrapf(err, "request %d", 3)
	assert.Equal(t, CodeNotFound, GetCode(outer))
	assert.True(t, IsAppError(outer))

	assert.Nil(t, Wrap(nil, "x"))
	assert.Equal(t, CodeDatabaseError, GetCode(WithCode(CodeDatabaseError, outer)))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}
