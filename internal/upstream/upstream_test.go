package upstream_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd-guo/ChatGeoPT/internal/upstream"
)

func TestWrap_NilStaysNil(t *testing.T) {
	assert.NoError(t, upstream.Wrap(upstream.ServiceChat, 0, nil))
}

func TestWrap_MatchesThroughFmtWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("geocode: %w", upstream.Wrap(upstream.ServiceGeocoder, 0, cause))

	ue, ok := upstream.As(err)
	require.True(t, ok)
	assert.Equal(t, upstream.ServiceGeocoder, ue.Service)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "geocoder unavailable")
}

func TestError_IncludesStatus(t *testing.T) {
	err := upstream.Wrap(upstream.ServiceMapData, 504, errors.New("gateway timeout"))
	assert.Equal(t, "map-data unavailable: status 504: gateway timeout", err.Error())
}

func TestAs_OtherErrors(t *testing.T) {
	_, ok := upstream.As(errors.New("plain"))
	assert.False(t, ok)
}
