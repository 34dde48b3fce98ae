package cli

import (
	"bytes"
	"errors"
	"flag"
	"strings"
	"testing"
	"time"

	"ride-console/internal/domain/user"
	"ride-console/internal/general/jwt"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		args     []string
		wantMode string
		wantRest []string
	}{
		{[]string{"--mode=admin-service", "--max-concurrent=5"}, ModeAdmin, []string{"--max-concurrent=5"}},
		{[]string{"console", "--config=x.yaml"}, ModeConsole, []string{"--config=x.yaml"}},
		{[]string{"--mode=c"}, ModeConsole, nil},
		{[]string{"t", "--subject=ops"}, ModeToken, []string{"--subject=ops"}},
	}
	for _, tc := range cases {
		mode, rest, err := ParseMode(tc.args)
		if err != nil {
			t.Fatalf("ParseMode(%v): %v", tc.args, err)
		}
		if mode != tc.wantMode || strings.Join(rest, " ") != strings.Join(tc.wantRest, " ") {
			t.Fatalf("ParseMode(%v) = %q %v", tc.args, mode, rest)
		}
	}
}

func TestParseMode_Errors(t *testing.T) {
	if _, _, err := ParseMode([]string{"--config=x"}); err == nil {
		t.Fatal("expected error without a mode")
	}
	if _, _, err := ParseMode([]string{"--mode=ride-service"}); err == nil {
		t.Fatal("expected error for an unknown mode")
	}
}

func TestAttachUsage(t *testing.T) {
	var buf bytes.Buffer
	fs := flag.NewFlagSet(ModeConsole, flag.ContinueOnError)
	fs.SetOutput(&buf)
	fs.String("config", DefaultConfigPath, "config path")
	AttachUsage(fs, ModeConsole)

	if err := fs.Parse([]string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	if !strings.Contains(buf.String(), "--mode=console") || !strings.Contains(buf.String(), "config") {
		t.Fatalf("unexpected usage text: %s", buf.String())
	}
}

func TestGenerateOperatorToken(t *testing.T) {
	tok, claims, err := GenerateOperatorToken("secret", time.Hour, "ops-1", "operator")
	if err != nil {
		t.Fatalf("GenerateOperatorToken: %v", err)
	}
	if claims.Role != user.RoleOperator || claims.Subject != "ops-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	mgr, _ := jwt.NewManager("secret", time.Hour)
	if _, err := mgr.ParseAndValidate(tok); err != nil {
		t.Fatalf("token does not validate: %v", err)
	}

	if _, _, err := GenerateOperatorToken("secret", time.Hour, "ops-1", "PASSENGER"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if _, _, err := GenerateOperatorToken(" ", time.Hour, "ops-1", "ADMIN"); !errors.Is(err, jwt.ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}
