package adaptergw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Empty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body string
		want bool
	}{
		{"", true},
		{"  \n\t", true},
		{"null", true},
		{" null\n", true},
		{"{}", false},
		{"[]", false},
		{`""`, false},
		{"0", false},
		{"false", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompletedResult([]byte(tt.body)).Empty(), "%q", tt.body)
	}
}

func TestResult_Constructors(t *testing.T) {
	t.Parallel()

	ok := CompletedResult([]byte(`{"id":"abc"}`))
	assert.Equal(t, Completed, ok.State)
	assert.NoError(t, ok.Err)

	failed := FailedResult(ErrInvalidRequest)
	assert.Equal(t, Failed, failed.State)
	assert.Nil(t, failed.Body)
	assert.Equal(t, "failed", failed.State.String())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "resolving", Resolving.String())
	assert.Equal(t, "forwarding", Forwarding.String())
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestLocation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "h:9", Location{Host: "h", Port: 9}.Addr())
	assert.Equal(t, "[::1]:8080", Location{Host: "::1", Port: 8080}.String())

	assert.True(t, Location{Host: "h", Port: 1}.Valid())
	assert.False(t, Location{Host: "", Port: 9}.Valid())
	assert.False(t, Location{Host: "h", Port: 0}.Valid())
	assert.False(t, Location{Host: "h", Port: 70000}.Valid())
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
}
