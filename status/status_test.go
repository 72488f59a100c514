package status

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	for _, s := range []Status{Unsigned, PartiallySigned, FullySigned} {
		assert.NoError(t, s.Verify())
	}
	assert.ErrorIs(t, Status(7).Verify(), errUnknownStatus)
	assert.Equal(t, "Invalid status", Status(7).String())
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(PartiallySigned)
	require.NoError(t, err)
	assert.Equal(t, `"PartiallySigned"`, string(b))

	var s Status
	require.NoError(t, json.Unmarshal([]byte(`"FullySigned"`), &s))
	assert.Equal(t, FullySigned, s)

	assert.Error(t, json.Unmarshal([]byte(`"Signed"`), &s))
}

func TestOf(t *testing.T) {
	tests := []struct {
		collected []int
		required  []int
		expected  Status
	}{
		{[]int{0, 0}, []int{1, 2}, Unsigned},
		{[]int{1, 1}, []int{1, 2}, PartiallySigned},
		{[]int{0, 2}, []int{1, 2}, PartiallySigned},
		{[]int{1, 2}, []int{1, 2}, FullySigned},
		{[]int{1}, []int{1}, FullySigned},
		{nil, []int{2}, Unsigned},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, Of(test.collected, test.required), "%v/%v", test.collected, test.required)
	}
}
