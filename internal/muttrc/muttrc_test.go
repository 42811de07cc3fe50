package muttrc

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestGenerate_Identity(t *testing.T) {
	rc := Generate(Options{Name: "Ada Lovelace", Email: "ada@example.org", Editor: "nvim"})
	for _, want := range []string{
		`set realname="Ada Lovelace"`,
		`set from="ada@example.org"`,
		`set editor="nvim"`,
	} {
		if !strings.Contains(rc, want) {
			t.Errorf("muttrc missing %q", want)
		}
	}
}

func TestGenerate_NoIdentity(t *testing.T) {
	rc := Generate(Options{})
	if strings.Contains(rc, "set realname") || strings.Contains(rc, "set from") {
		t.Error("identity lines emitted without an identity")
	}
}

func TestGenerate_DisplayDefaults(t *testing.T) {
	rc := Generate(Options{})
	for _, want := range []string{
		"set help=no",
		"set reverse_name=yes",
		"set edit_headers=yes",
		"set use_envelope_from=yes",
		"alternative_order text/plain",
		"ignore *",
		"unignore from: date: subject: to: cc:",
		"%-15.15L",
	} {
		if !strings.Contains(rc, want) {
			t.Errorf("muttrc missing %q", want)
		}
	}
}

func TestGenerate_Sort(t *testing.T) {
	rc := Generate(Options{})
	if !strings.Contains(rc, "set sort=threads") || !strings.Contains(rc, "set sort_aux=last-date-received") {
		t.Errorf("default sort wrong:\n%s", rc)
	}
	rc = Generate(Options{Reverse: true})
	if !strings.Contains(rc, "set sort=reverse-threads") || !strings.Contains(rc, "set sort_aux=reverse-last-date-received") {
		t.Errorf("reverse sort wrong:\n%s", rc)
	}
}

func TestGenerate_SubjectHighlight(t *testing.T) {
	rc := Generate(Options{SubjectToken: "net..fix.leak"})
	if !strings.Contains(rc, `color body brightyellow default "net..fix.leak"`) {
		t.Errorf("missing subject highlight:\n%s", rc)
	}
}

func TestGenerate_AuthorCommitterHighlights(t *testing.T) {
	rc := Generate(Options{AuthorEmail: "a@x.org", CommitterEmail: "c@x.org"})
	if !strings.Contains(rc, `"~f a@x.org"`) {
		t.Error("missing author highlight")
	}
	if !strings.Contains(rc, `"~f c@x.org"`) {
		t.Error("missing committer highlight")
	}

	// Same person: one rule is enough.
	rc = Generate(Options{AuthorEmail: "a@x.org", CommitterEmail: "a@x.org"})
	if strings.Count(rc, "~f a@x.org") != 1 {
		t.Errorf("duplicate highlight for identical author/committer:\n%s", rc)
	}
}

func TestGenerate_Tags(t *testing.T) {
	plain := Generate(Options{})
	if strings.Contains(plain, "index-format-hook") {
		t.Error("trailer hooks emitted without --tags")
	}

	tagged := Generate(Options{Tags: true})
	for _, trailer := range []string{"Fixes", "Signed-off-by", "Acked-by", "Reviewed-by", "Tested-by"} {
		if !strings.Contains(tagged, trailer) {
			t.Errorf("tags muttrc missing trailer %q", trailer)
		}
	}
	if !strings.Contains(tagged, "%@tags@") {
		t.Error("tags mode did not extend the index format")
	}
}

func writeFakeReader(t *testing.T, body string) (reader, mboxPath string) {
	t.Helper()
	dir := t.TempDir()
	reader = filepath.Join(dir, "fakereader")
	if err := os.WriteFile(reader, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	mboxPath = filepath.Join(dir, "m.mbox")
	if err := os.WriteFile(mboxPath, []byte("From a\n\nbody\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return reader, mboxPath
}

func TestLaunch_ShieldsInterruptsWhileReaderRuns(t *testing.T) {
	reader, mboxPath := writeFakeReader(t, "sleep 1\n")

	errCh := make(chan error, 1)
	go func() { errCh <- Launch(reader, "", mboxPath) }()

	// The session must ignore interrupts for its whole duration so cleanup
	// after the reader exits is never skipped.
	deadline := time.Now().Add(5 * time.Second)
	for !signal.Ignored(os.Interrupt) {
		if time.Now().After(deadline) {
			t.Fatal("interrupts not ignored while the reader runs")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !signal.Ignored(syscall.SIGTERM) {
		t.Error("SIGTERM not ignored while the reader runs")
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Launch() error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Launch() did not return")
	}

	if signal.Ignored(os.Interrupt) {
		t.Error("interrupt still ignored after the reader exited")
	}
}

func TestLaunch_PropagatesReaderExitStatus(t *testing.T) {
	reader, mboxPath := writeFakeReader(t, "exit 3\n")

	err := Launch(reader, "", mboxPath)
	if err == nil {
		t.Fatal("Launch() succeeded for a failing reader")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v; want wrapped exit error", err)
	}
	if exitErr.ExitCode() != 3 {
		t.Errorf("exit code = %d; want 3", exitErr.ExitCode())
	}
}

func TestEditor(t *testing.T) {
	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "")
	if got := Editor(); got != "vi" {
		t.Errorf("Editor() fallback = %q; want vi", got)
	}
	t.Setenv("VISUAL", "emacs")
	if got := Editor(); got != "emacs" {
		t.Errorf("Editor() = %q; want emacs", got)
	}
	t.Setenv("EDITOR", "nano")
	if got := Editor(); got != "nano" {
		t.Errorf("Editor() = %q; want EDITOR to win", got)
	}
}
