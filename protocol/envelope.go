package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"chatrelay/domain"
)

var ErrNoType = errors.New("envelope has no type")

// Decode parses one frame into its envelope variant. Unknown types decode to
// domain.Opaque so they can still be relayed.
func Decode(data []byte) (domain.Envelope, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch head.Type {
	case "":
		return nil, fmt.Errorf("decode envelope: %w", ErrNoType)
	case domain.TypeMessage:
		return decodeAs[domain.Message](data)
	case domain.TypeImageData:
		return decodeAs[domain.ImageData](data)
	case domain.TypeCommand:
		return decodeAs[domain.Command](data)
	case domain.TypeWhisper:
		return decodeAs[domain.Whisper](data)
	case domain.TypeAttack:
		return decodeAs[domain.Attack](data)
	default:
		return decodeAs[domain.Opaque](data)
	}
}

func decodeAs[T domain.Envelope](data []byte) (domain.Envelope, error) {
	var env T
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode %T: %w", env, err)
	}
	return env, nil
}
