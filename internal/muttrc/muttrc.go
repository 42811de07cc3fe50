// Package muttrc generates a mutt configuration for browsing a fetched
// mailbox and launches the reader against it.
package muttrc

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
)

// Options drive the generated configuration.
type Options struct {
	Name   string // sender identity for the From header
	Email  string
	Editor string

	Reverse bool // newest thread first

	// SubjectToken is the slug of the resolved commit subject; '.' in it
	// matches the punctuation it replaced, so the token doubles as the
	// body-highlight regex. Empty for raw queries.
	SubjectToken   string
	AuthorEmail    string
	CommitterEmail string

	// Tags enables the slow full-body trailer classification in the index.
	Tags bool
}

// Generate renders the muttrc text.
func Generate(o Options) string {
	var b strings.Builder

	if o.Name != "" {
		fmt.Fprintf(&b, "set realname=\"%s\"\n", o.Name)
	}
	if o.Email != "" {
		fmt.Fprintf(&b, "set from=\"%s\"\n", o.Email)
	}
	if o.Editor != "" {
		fmt.Fprintf(&b, "set editor=\"%s\"\n", o.Editor)
	}

	b.WriteString(`set help=no
set reverse_name=yes
set reverse_realname=yes
set edit_headers=yes
set use_envelope_from=yes
alternative_order text/plain text/enriched text/html
ignore *
unignore from: date: subject: to: cc: message-id:
`)

	if o.Reverse {
		b.WriteString("set sort=reverse-threads\nset sort_aux=reverse-last-date-received\n")
	} else {
		b.WriteString("set sort=threads\nset sort_aux=last-date-received\n")
	}

	if o.Tags {
		b.WriteString("set index_format=\"%Z %{%b %d} %-15.15L %@tags@(%?l?%4l&%4c?) %s\"\n")
		for _, hook := range trailerHooks {
			fmt.Fprintf(&b, "index-format-hook tags '~b \"^%s:\"' \"[%s] \"\n", hook.trailer, hook.mark)
		}
		b.WriteString("index-format-hook tags '~A' \"    \"\n")
	} else {
		b.WriteString("set index_format=\"%Z %{%b %d} %-15.15L (%?l?%4l&%4c?) %s\"\n")
	}

	b.WriteString(`color indicator black yellow
color index_flags brightred default
color index_date brightblue default
color header brightgreen default "^(From|Subject|Date):"
color quoted cyan default
color quoted1 yellow default
color quoted2 magenta default
color quoted3 green default
color body brightgreen default "^[+][^+].*"
color body brightred default "^[-][^-].*"
color body brightcyan default "^diff --git.*"
color body brightcyan default "^@@ .*"
`)

	if o.SubjectToken != "" {
		fmt.Fprintf(&b, "color body brightyellow default \"%s\"\n", o.SubjectToken)
	}
	if o.AuthorEmail != "" {
		fmt.Fprintf(&b, "color index brightyellow default \"~f %s\"\n", o.AuthorEmail)
	}
	if o.CommitterEmail != "" && o.CommitterEmail != o.AuthorEmail {
		fmt.Fprintf(&b, "color index brightmagenta default \"~f %s\"\n", o.CommitterEmail)
	}

	return b.String()
}

// trailerHooks classify messages by the review trailer they carry. First
// match wins, so the order is roughly "most interesting first".
var trailerHooks = []struct {
	trailer string
	mark    string
}{
	{"Fixes", "F"},
	{"Signed-off-by", "S"},
	{"Acked-by", "A"},
	{"Reviewed-by", "R"},
	{"Tested-by", "T"},
}

// DetectReader returns the first available reader binary, preferring
// neomutt over mutt.
func DetectReader() (string, error) {
	for _, name := range []string{"neomutt", "mutt"} {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no mail reader found (tried neomutt, mutt); install one or pass --reader")
}

// Editor returns the editor for the reader's compose screen.
func Editor() string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return "vi"
}

// Launch runs the reader in the foreground against the mailbox, blocking
// until it exits. rcPath may be empty to launch with the reader's own
// configuration. The reader's exit status is propagated to the caller.
//
// While the reader runs, the parent ignores SIGINT and SIGTERM: a Ctrl+C
// reaches the whole foreground process group, and the reader handles it
// itself; the parent must survive it so post-session cleanup still runs.
func Launch(reader, rcPath, mboxPath string) error {
	args := []string{"-f", mboxPath}
	if rcPath != "" {
		args = append([]string{"-F", rcPath}, args...)
	}
	cmd := exec.Command(reader, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	signal.Ignore(os.Interrupt, syscall.SIGTERM)
	defer signal.Reset(os.Interrupt, syscall.SIGTERM)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", reader, err)
	}
	return nil
}
