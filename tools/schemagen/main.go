// schemagen пишет JSON Schema всех сообщений GUI-протокола и объявления
// обнаружения. Схема описывает поля и допустимые значения; на проводе
// сообщения идут в бинарном виде (pkg/codec).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"streetfire-server/internal/discovery"
	"streetfire-server/pkg/api"
	"streetfire-server/pkg/codec"
)

// messages - по одному значению каждого вида сообщения.
var messages = []api.Message{
	api.Refresh{},
	api.KillGame{},
	api.InitiateNextState{},
	api.ExecutePlayerAction{},
	api.ActivateEmitter{},
	api.TogglePause{},
	api.UpdatePlayerStatus{},
	api.ExecuteRingmasterAction{},
	api.ExecuteGenericAction{},
	api.QuerySystemInfo{},

	api.GameInfoRefresh{},
	api.FireEmitterChanged{},
	api.GameStateChanged{},
	api.PlayerHealthChanged{},
	api.PlayerActionPointsChanged{},
	api.RoundBeginTimerChanged{},
	api.RoundPlayTimerChanged{},
	api.RoundEnded{},
	api.MatchEnded{},
	api.PlayerAttackAction{},
	api.PlayerBlockAction{},
	api.UnrecognizedGesture{},
	api.BlockWindow{},
	api.RingmasterActionPerformed{},
	api.SystemInfoRefresh{},
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildSchema()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	defs := jsonschema.Definitions{}
	for _, msg := range messages {
		s := reflector.Reflect(msg)
		s.Version = ""
		s.Title = msg.Kind().String()
		direction := "event"
		if msg.Kind().IsCommand() {
			direction = "command"
		}
		s.Description = fmt.Sprintf("GUI protocol %s, wire kind %d", direction, msg.Kind())
		defs[msg.Kind().String()] = s
	}

	ann := reflector.Reflect(discovery.Announcement{})
	ann.Version = ""
	ann.Title = "DISCOVERY_ANNOUNCEMENT"
	ann.Description = "UDP reply to a discovery probe"
	defs[ann.Title] = ann

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Street Fire GUI Protocol",
		Description: fmt.Sprintf("Messages of wire format version %d", codec.Version),
		Definitions: defs,
	}
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
