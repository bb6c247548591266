package financing

import "encoding/json"

// decode copies a tool response into dst. Responses are typed structs when
// fresh and generic maps after a round trip through a session store.
func decode(response any, dst any) bool {
	raw, err := json.Marshal(response)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}
