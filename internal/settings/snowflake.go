package settings

import (
	"bytes"
	"fmt"
	"strconv"
)

// Discord id. Older settings files store ids as numbers, so both strings
// and numbers are accepted. Always written back as a string, or null if empty
type Snowflake string

func (snowflake *Snowflake) UnmarshalJSON(data []byte) error {

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*snowflake = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*snowflake = Snowflake(text)
		return nil
	}

	// Numbers are kept digit by digit, they do not fit in a float
	if _, err := strconv.ParseUint(string(data), 10, 64); err != nil {
		return fmt.Errorf("id %s is neither a string nor a number", string(data))
	}
	*snowflake = Snowflake(data)
	return nil
}

func (snowflake Snowflake) MarshalJSON() ([]byte, error) {
	if snowflake == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(snowflake))
}
