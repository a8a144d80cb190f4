// Command keygen prints a fresh MASTER_KEY.
package main

import (
	"fmt"
	"log"

	"github.com/shubhamshk/ProjectPad/internal/cryptobox"
)

func main() {
	key, err := cryptobox.GenerateMasterKey()
	if err != nil {
		log.Fatalf("generate key: %v", err)
	}
	fmt.Println(key)
}
