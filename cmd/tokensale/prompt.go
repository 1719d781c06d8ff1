package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// promptPassphrase reads the keystore passphrase from the terminal without
// echoing it.
func promptPassphrase() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("keystore passphrase not set and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Keystore passphrase: ")
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(pass), nil
}
