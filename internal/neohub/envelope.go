package neohub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MessageType tags every command envelope sent to the hub.
const MessageType = "hm_get_command_queue"

// commandID is fixed: the hub protocol has no request pipelining.
const commandID = 1

type outerEnvelope struct {
	MessageType string `json:"message_type"`
	Message     string `json:"message"`
}

type innerMessage struct {
	Token    string         `json:"token"`
	Commands []commandEntry `json:"COMMANDS"`
}

type commandEntry struct {
	Command   string `json:"COMMAND"`
	CommandID int    `json:"COMMANDID"`
}

// BuildEnvelope serializes one command into the hub wire format:
//
//	{"message_type":"hm_get_command_queue","message":"{\"token\":..,\"COMMANDS\":[{\"COMMAND\":\"{'CMD':VALUE}\",\"COMMANDID\":1}]}"}
func BuildEnvelope(token, name, value string) ([]byte, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyCommand
	}
	inner, err := marshal(innerMessage{
		Token: token,
		Commands: []commandEntry{{
			Command:   fmt.Sprintf("{'%s':%s}", name, value),
			CommandID: commandID,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return marshal(outerEnvelope{MessageType: MessageType, Message: string(inner)})
}

// ParseEnvelope is the inverse of BuildEnvelope.
func ParseEnvelope(b []byte) (token, name, value string, err error) {
	var outer outerEnvelope
	if err = json.Unmarshal(b, &outer); err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if outer.MessageType != MessageType {
		return "", "", "", fmt.Errorf("%w: message_type %q", ErrMalformedEnvelope, outer.MessageType)
	}
	var inner innerMessage
	if err = json.Unmarshal([]byte(outer.Message), &inner); err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(inner.Commands) != 1 || inner.Commands[0].CommandID != commandID {
		return "", "", "", fmt.Errorf("%w: want exactly one command with id %d", ErrMalformedEnvelope, commandID)
	}
	name, value, ok := splitCommand(inner.Commands[0].Command)
	if !ok {
		return "", "", "", fmt.Errorf("%w: command %q", ErrMalformedEnvelope, inner.Commands[0].Command)
	}
	return inner.Token, name, value, nil
}

// splitCommand parses "{'NAME':VALUE}".
func splitCommand(s string) (string, string, bool) {
	if !strings.HasPrefix(s, "{'") || !strings.HasSuffix(s, "}") {
		return "", "", false
	}
	body := s[2 : len(s)-1]
	i := strings.Index(body, "':")
	if i <= 0 {
		return "", "", false
	}
	return body[:i], body[i+2:], true
}

// marshal is json.Marshal without HTML escaping; recipe names travel verbatim.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
