package conv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsKey(t *testing.T) {
	var testCases = []struct {
		description string
		value       interface{}
		expect      string
	}{
		{description: "string", value: "abc", expect: "abc"},
		{description: "int", value: 7, expect: "7"},
		{description: "float without fraction", value: float64(7), expect: "7"},
		{description: "float with fraction", value: 7.5, expect: "7.5"},
		{description: "raw number", value: json.RawMessage(`12`), expect: "12"},
		{description: "raw string", value: json.RawMessage(`"tok-1"`), expect: "tok-1"},
		{description: "nil", value: nil, expect: ""},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, AsKey(testCase.value), testCase.description)
	}
}
