// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := ContextWithRunID(context.Background(), "run-42")
	ctx = ContextWithSource(ctx, "ppv")

	assert.Equal(t, "run-42", RunIDFromContext(ctx))
	assert.Equal(t, "ppv", SourceFromContext(ctx))
}

func TestContextMissingValues(t *testing.T) {
	assert.Empty(t, RunIDFromContext(context.Background()))
	assert.Empty(t, SourceFromContext(context.Background()))
	assert.Empty(t, RunIDFromContext(nil)) //nolint:staticcheck // nil ctx is tolerated
}

func TestContextWithNilParent(t *testing.T) {
	ctx := ContextWithRunID(nil, "run-1") //nolint:staticcheck // nil ctx is tolerated
	assert.Equal(t, "run-1", RunIDFromContext(ctx))
}
