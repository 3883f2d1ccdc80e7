package utils

import (
	"encoding/json"
)

func MarshalToJSON(obj interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return jsonData, nil
}

func UnmarshalFromJSON(jsonData []byte, obj interface{}) error {
	err := json.Unmarshal(jsonData, obj)
	if err != nil {
		return err
	}
	return nil
}
