// Command hashpw prints a salt and argon2id password hash suitable for
// inserting a user into the store by hand.
//
// Usage:
//
//	hashpw [-t time] [-m memoryKiB] [-p threads]
//
// The password is read twice from the terminal without echo. When stdin is
// not a terminal a single line is read instead.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/dmitrijs2005/bellwether/internal/cryptox"
	"github.com/dmitrijs2005/bellwether/internal/server/credentials"
	"golang.org/x/term"
)

type output struct {
	Salt         string `json:"salt"`
	PasswordHash string `json:"password_hash"`
}

// passwordReader returns the password to hash.
type passwordReader func() (string, error)

func main() {
	params, err := parseParams(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(2)
	}

	read := lineReader(os.Stdin)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		read = terminalReader(fd, os.Stderr)
	}

	if err := run(context.Background(), params, read, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
}

// parseParams reads the argon2id cost flags on top of the defaults. Values
// that do not fit the parameter's type are rejected.
func parseParams(args []string) (cryptox.Argon2Params, error) {
	params := cryptox.DefaultArgon2Params()

	fs := flag.NewFlagSet("hashpw", flag.ContinueOnError)
	t := fs.Uint64("t", uint64(params.Time), "argon2id time cost")
	m := fs.Uint64("m", uint64(params.MemoryKiB), "argon2id memory, KiB")
	p := fs.Uint64("p", uint64(params.Threads), "argon2id threads")
	if err := fs.Parse(args); err != nil {
		return params, err
	}

	if *t > math.MaxUint32 {
		return params, fmt.Errorf("-t %d exceeds %d", *t, uint64(math.MaxUint32))
	}
	if *m > math.MaxUint32 {
		return params, fmt.Errorf("-m %d exceeds %d", *m, uint64(math.MaxUint32))
	}
	if *p > math.MaxUint8 {
		return params, fmt.Errorf("-p %d exceeds %d", *p, math.MaxUint8)
	}

	params.Time = uint32(*t)
	params.MemoryKiB = uint32(*m)
	params.Threads = uint8(*p)
	return params, nil
}

func run(ctx context.Context, params cryptox.Argon2Params, read passwordReader, out io.Writer) error {
	svc, err := credentials.NewService(credentials.Config{Argon2: params, MaxConcurrent: 1})
	if err != nil {
		return err
	}

	password, err := read()
	if err != nil {
		return err
	}

	salt := svc.GenerateSalt()
	hash, err := svc.HashPassword(ctx, password, salt)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(output{Salt: salt, PasswordHash: hash})
}

func terminalReader(fd int, prompt io.Writer) passwordReader {
	return func() (string, error) {
		fmt.Fprint(prompt, "Password: ")
		first, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}

		fmt.Fprint(prompt, "Repeat password: ")
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}

		if string(first) != string(second) {
			return "", errors.New("passwords do not match")
		}
		return string(first), nil
	}
}

func lineReader(r io.Reader) passwordReader {
	return func() (string, error) {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return "", errors.New("no password given")
		}
		return line, nil
	}
}
