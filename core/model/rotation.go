package model

import "encoding/json"

// UnmarshalJSON accepts both the compact form ("Math") and the rotation form
// (["Math","Bio"]) found in stored schedule documents.
func (r *Rotation) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = Rotation{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*r = Rotation(list)
	return nil
}

// MarshalJSON writes one-element slots back as a bare string so persisted
// documents keep the compact legacy shape.
func (r Rotation) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]string(r))
}
