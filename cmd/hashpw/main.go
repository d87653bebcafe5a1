// Command hashpw reads an operator password from stdin and prints the bcrypt
// hash expected in OPS_ADMIN_PASSWORD_HASH or OPS_MONITOR_PASSWORD_HASH.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"bookcatalog/internal/auth"

	"github.com/rs/zerolog/log"
)

func main() {
	hash, err := hashFrom(os.Stdin)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}
	fmt.Println(hash)
}

// hashFrom hashes the first line of r.
func hashFrom(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password")
	}
	return auth.HashPassword(password)
}
