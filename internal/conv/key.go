package conv

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AsKey converts a JSON scalar into a string key, so that 7, 7.0 and "7" all map to "7".
func AsKey(value interface{}) string {
	switch actual := value.(type) {
	case nil:
		return ""
	case string:
		return actual
	case int:
		return strconv.Itoa(actual)
	case int64:
		return strconv.FormatInt(actual, 10)
	case float64:
		if actual == float64(int64(actual)) {
			return strconv.FormatInt(int64(actual), 10)
		}
		return strconv.FormatFloat(actual, 'f', -1, 64)
	case json.Number:
		return AsKey(string(actual))
	case json.RawMessage:
		var decoded interface{}
		if err := json.Unmarshal(actual, &decoded); err != nil {
			return string(actual)
		}
		return AsKey(decoded)
	default:
		return fmt.Sprintf("%v", actual)
	}
}
