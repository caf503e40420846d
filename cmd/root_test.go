package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"serve", "chat", "history", "version"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	root := rootCmd
	root.SetArgs([]string{"definitely-not-a-command"})
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))

	if err := root.Execute(); err == nil {
		t.Fatal("Execute succeeded for unknown command")
	}
}

func TestVersionOutput(t *testing.T) {
	out := new(bytes.Buffer)
	cmd := versionCmd
	cmd.SetOut(out)

	if err := runVersion(cmd); err != nil {
		t.Fatalf("runVersion: %v", err)
	}

	if !strings.HasPrefix(out.String(), "ragchat ") {
		t.Errorf("version output = %q, want prefix %q", out.String(), "ragchat ")
	}
}
