// Command hash prints the bcrypt hash of a password for the Auth.AdminPasswordHash setting.
package main

import (
	"bufio"
	"fmt"
	"os"
	"portfolio-site/internal/models"
	"strings"

	"github.com/fatih/color"
)

func main() {
	password := strings.Join(os.Args[1:], " ")
	if len(password) == 0 {
		color.New(color.FgYellow).Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && len(line) == 0 {
			color.New(color.FgRed).Fprintf(os.Stderr, "reading password: %v\n", err)
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := models.Hash(password)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "hashing password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}
