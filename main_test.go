package main

import (
	"testing"

	"github.com/jj-tsao/reelix-ai-sub001/internal/watchlist"
)

func TestParseGlobalFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantProfile string
		wantDebug   bool
		wantArgs    []string
	}{
		{
			name:        "no flags",
			args:        []string{"login", "url"},
			wantProfile: "",
			wantArgs:    []string{"login", "url"},
		},
		{
			name:        "profile before command",
			args:        []string{"--profile", "family", "login"},
			wantProfile: "family",
			wantArgs:    []string{"login"},
		},
		{
			name:        "profile after command",
			args:        []string{"config", "--profile", "prod"},
			wantProfile: "prod",
			wantArgs:    []string{"config"},
		},
		{
			name:      "debug flag",
			args:      []string{"--debug", "ask", "something fun"},
			wantDebug: true,
			wantArgs:  []string{"ask", "something fun"},
		},
		{
			name:        "profile and debug together",
			args:        []string{"--profile", "dev", "--debug", "discover"},
			wantProfile: "dev",
			wantDebug:   true,
			wantArgs:    []string{"discover"},
		},
		{
			name:        "profile with extra args",
			args:        []string{"--profile", "dev", "set", "server", "http://localhost"},
			wantProfile: "dev",
			wantArgs:    []string{"set", "server", "http://localhost"},
		},
		{
			name:     "trailing profile with no value is ignored",
			args:     []string{"config", "--profile"},
			wantArgs: []string{"config"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activeProfile = ""
			debugMode = false
			defer func() { activeProfile = ""; debugMode = false }()
			got := parseGlobalFlags(tt.args)
			if activeProfile != tt.wantProfile {
				t.Errorf("activeProfile = %q, want %q", activeProfile, tt.wantProfile)
			}
			if debugMode != tt.wantDebug {
				t.Errorf("debugMode = %v, want %v", debugMode, tt.wantDebug)
			}
			if len(got) != len(tt.wantArgs) {
				t.Errorf("remaining args = %v, want %v", got, tt.wantArgs)
				return
			}
			for i := range got {
				if got[i] != tt.wantArgs[i] {
					t.Errorf("arg[%d] = %q, want %q", i, got[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestParseItems(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		kind    string
		want    []watchlist.Item
		wantErr bool
	}{
		{
			name: "single id",
			args: []string{"550"},
			kind: "movie",
			want: []watchlist.Item{{MediaID: 550, Kind: "movie"}},
		},
		{
			name: "multiple ids keep order",
			args: []string{"550", "949"},
			kind: "tv",
			want: []watchlist.Item{{MediaID: 550, Kind: "tv"}, {MediaID: 949, Kind: "tv"}},
		},
		{
			name:    "no ids",
			args:    nil,
			kind:    "movie",
			wantErr: true,
		},
		{
			name:    "non-numeric id",
			args:    []string{"heat"},
			kind:    "movie",
			wantErr: true,
		},
		{
			name:    "negative id",
			args:    []string{"-1"},
			kind:    "movie",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseItems(tt.args, tt.kind)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseItems(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseItems(%v) = %v, want %v", tt.args, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
