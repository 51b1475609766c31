package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

// stubModule is a minimal Module for registry and bot tests.
type stubModule struct {
	name          string
	commands      []*discordgo.ApplicationCommand
	handlers      map[string]InteractionHandler
	eventHandlers []EventHandler
	initErr       error
	shutErr       error
}

func (m *stubModule) Name() string                                   { return m.name }
func (m *stubModule) Commands() []*discordgo.ApplicationCommand      { return m.commands }
func (m *stubModule) CommandHandlers() map[string]InteractionHandler { return m.handlers }
func (m *stubModule) EventHandlers() []EventHandler                  { return m.eventHandlers }
func (m *stubModule) Init(deps ModuleDependencies) error             { return m.initErr }
func (m *stubModule) Shutdown() error                                { return m.shutErr }

func TestRegistry_RegisterPreservesOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubModule{name: "music"})
	reg.Register(&stubModule{name: "status"})

	modules := reg.Modules()
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if modules[0].Name() != "music" || modules[1].Name() != "status" {
		t.Errorf("expected registration order music, status; got %q, %q",
			modules[0].Name(), modules[1].Name())
	}
}

func TestRegistry_ModulesReturnsSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubModule{name: "music"})

	snapshot := reg.Modules()
	reg.Register(&stubModule{name: "status"})

	if len(snapshot) != 1 {
		t.Errorf("expected snapshot to stay at 1 module, got %d", len(snapshot))
	}
	if len(reg.Modules()) != 2 {
		t.Errorf("expected registry to hold 2 modules, got %d", len(reg.Modules()))
	}
}

func TestGlobalRegistry(t *testing.T) {
	ResetGlobalRegistry()
	defer ResetGlobalRegistry()

	Register(&stubModule{name: "music"})

	modules := Modules()
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}
	if modules[0].Name() != "music" {
		t.Errorf("expected module name %q, got %q", "music", modules[0].Name())
	}
}
