package service

import (
	"context"
	"errors"
	"strings"

	cf "neohub_controller"
	"neohub_controller/internal/logger"
)

// CommandSender is satisfied by *neohub.Client.
type CommandSender interface {
	Run(ctx context.Context, name, value string) (string, error)
}

// ErrInvalidCommand rejects a command without a name.
var ErrInvalidCommand = errors.New("invalid command: cmd is required")

const defaultCommandValue = "0"

type HubService struct {
	client CommandSender
	log    *logger.Logger
}

func NewHubService(client CommandSender, log *logger.Logger) *HubService {
	return &HubService{client: client, log: log}
}

// Send relays one command. An empty value defaults to 0, the argument the hub
// expects for parameterless queries such as GET_LIVE_DATA.
func (s *HubService) Send(ctx context.Context, cmd cf.Command) (string, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return "", ErrInvalidCommand
	}
	value := strings.TrimSpace(cmd.Value)
	if value == "" {
		value = defaultCommandValue
	}

	reply, err := s.client.Run(ctx, name, value)
	if err != nil {
		if s.log != nil {
			s.log.Errorw("hub_command_failed", "cmd", name, "value", value, "err", err)
		}
		return "", err
	}
	if s.log != nil {
		s.log.Infow("hub_command_sent", "cmd", name, "value", value, "reply_bytes", len(reply))
	}
	return reply, nil
}
