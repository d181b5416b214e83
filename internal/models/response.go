package models

import "encoding/json"

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    ErrorKind   `json:"code,omitempty"`
}

// BridgeCall is the argument bundle of one bridge action.
type BridgeCall struct {
	Args []json.RawMessage `json:"args"`
}
