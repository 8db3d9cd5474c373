package main

import (
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestStaleCommands(t *testing.T) {
	remote := []*discordgo.ApplicationCommand{{Name: "mod"}, {Name: "music"}, {Name: "premium"}}
	local := []*discordgo.ApplicationCommand{{Name: "mod"}, {Name: "punishment"}}

	got := staleCommands(remote, local)
	want := []string{"music", "premium"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("staleCommands() = %v, want %v", got, want)
	}

	if got := staleCommands(local, local); got != nil {
		t.Errorf("staleCommands(same) = %v, want nil", got)
	}
}
